//go:build windows

package transaction

// Windows refuses FlushFileBuffers on directory handles.
func isSyncUnsupported(err error) bool {
	return err != nil
}
