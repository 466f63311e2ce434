package cache

import (
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

// DefaultFilename is used when neither the response nor the URL yields a name.
const DefaultFilename = "download"

// windowsReserved are the characters replaced with '_' on Windows.
const windowsReserved = `<>:"|?*\/`

// DeriveFilename picks the raw (unsanitized) cache filename for a response.
func DeriveFilename(contentDisposition string, requestURL *url.URL) string {
	if name := dispositionFilename(contentDisposition); name != "" {
		return name
	}
	if name := urlFilename(requestURL); name != "" {
		return name
	}
	return DefaultFilename
}

// dispositionFilename extracts the filename from a Content-Disposition
// header value. The extended form (filename*=UTF-8''x) wins over the quoted
// form when both are present.
func dispositionFilename(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}

	// Servers send plenty of headers mime rejects (unquoted spaces, bare
	// parameters), so fall back to a lenient scan.
	var plain, extended string
	for _, part := range strings.Split(header, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "filename*":
			extended = decodeExtendedValue(strings.TrimSpace(value))
		case "filename":
			plain = strings.Trim(strings.TrimSpace(value), `"`)
		}
	}

	if extended != "" {
		return extended
	}
	return plain
}

// decodeExtendedValue decodes an RFC 5987 value such as UTF-8''foo%20bar.tgz.
// Decoding is minimal: the charset and language are dropped and
// percent-escapes are resolved; a malformed escape leaves the value as sent.
func decodeExtendedValue(value string) string {
	value = strings.Trim(value, `"`)
	if idx := strings.Index(value, "''"); idx >= 0 {
		value = value[idx+2:]
	} else if parts := strings.SplitN(value, "'", 3); len(parts) == 3 {
		value = parts[2]
	}

	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

// urlFilename returns the final path segment of u, or "" if there is none.
func urlFilename(u *url.URL) string {
	if u == nil {
		return ""
	}
	p := strings.TrimSuffix(u.Path, "/")
	if p == "" {
		return ""
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// Sanitize makes name safe to use as a single file in the cache directory.
// Windows-reserved characters are replaced only when key targets Windows;
// a path separator is always replaced so the name cannot escape the cache.
func Sanitize(name string, key platform.Key) string {
	name = strings.TrimSpace(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case key.IsWindows() && strings.ContainsRune(windowsReserved, r):
			b.WriteRune('_')
		case r == '/' || r == 0:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	sanitized := b.String()
	if sanitized == "" || sanitized == "." || sanitized == ".." {
		return DefaultFilename
	}
	return sanitized
}
