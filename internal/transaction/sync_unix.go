//go:build !windows

package transaction

func isSyncUnsupported(err error) bool {
	return false
}
