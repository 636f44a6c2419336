package web

import (
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

type compressWriter struct {
	gin.ResponseWriter
	enc   io.WriteCloser
	wrote bool
}

func (w *compressWriter) Write(b []byte) (int, error) {
	w.Header().Del("Content-Length")
	w.wrote = true
	return w.enc.Write(b)
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// acceptedEncoding picks brotli over gzip when the client accepts both.
func acceptedEncoding(header string) string {
	var gz bool
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.ReplaceAll(strings.TrimSpace(params), " ", "") == "q=0" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "br":
			return "br"
		case "gzip":
			gz = true
		}
	}
	if gz {
		return "gzip"
	}
	return ""
}

// compress encodes response bodies with brotli or gzip. Paths under the
// skip prefixes are served as is; resized images do not shrink further.
func compress(skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		for _, prefix := range skip {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		encoding := acceptedEncoding(c.GetHeader("Accept-Encoding"))
		if encoding == "" {
			c.Next()
			return
		}

		w := &compressWriter{ResponseWriter: c.Writer}
		switch encoding {
		case "br":
			w.enc = brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression)
		default:
			gw, _ := gzip.NewWriterLevel(c.Writer, gzip.DefaultCompression)
			w.enc = gw
		}

		c.Header("Content-Encoding", encoding)
		c.Writer.Header().Add("Vary", "Accept-Encoding")
		c.Writer = w
		defer func() {
			c.Writer = w.ResponseWriter
			if !w.wrote {
				if !w.ResponseWriter.Written() {
					w.Header().Del("Content-Encoding")
				}
				return
			}
			_ = w.enc.Close()
		}()

		c.Next()
	}
}
