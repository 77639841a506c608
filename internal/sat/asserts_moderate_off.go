//go:build !assertmoderate && !assertadvanced

package sat

func assertModerate(cond bool, msg string) {}
