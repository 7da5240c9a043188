package archive

import (
	"path/filepath"
	"strings"
)

// declaredTypes mirrors what browsers put in File.type for common
// extensions. Source formats browsers leave untyped (jsx, tsx, go, ...) are
// absent on purpose and declare "".
var declaredTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".pdf":  "application/pdf",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".mjs":  "text/javascript",
	".json": "application/json",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".xml":  "text/xml",
	".zip":  "application/zip",
	".gz":   "application/gzip",
}

// DeclaredType returns the browser-style media type for name, or "" when a
// browser would not type it.
func DeclaredType(name string) string {
	return declaredTypes[strings.ToLower(filepath.Ext(name))]
}
