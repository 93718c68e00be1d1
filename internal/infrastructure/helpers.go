package infrastructure

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const octetStream = "application/octet-stream"

// DetectContentType выбирает MIME-тип загружаемого файла: заявленный клиентом,
// затем по расширению, затем по первым байтам содержимого.
func DetectContentType(name, declared string, data []byte) string {
	if declared != "" && declared != octetStream {
		return declared
	}

	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}

	if len(data) == 0 {
		return octetStream
	}

	return http.DetectContentType(data)
}
