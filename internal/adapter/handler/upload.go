package handler

import (
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/mock-interview/errors"
	"github.com/johnquangdev/mock-interview/internal/usecase/analysis"
)

// maxUploadSize bounds a single multipart file
const maxUploadSize = 25 << 20

// formUpload reads the named multipart file. A missing file returns nil without error.
func formUpload(c echo.Context, field string) (*analysis.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if stdErrors.Is(err, http.ErrMissingFile) || stdErrors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errors.ErrInvalidPayload()
	}
	if fh.Size > maxUploadSize {
		return nil, errors.ErrInvalidArgument(fmt.Sprintf("%s exceeds %d bytes", field, maxUploadSize))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.ErrInvalidPayload()
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return nil, errors.ErrInvalidPayload()
	}
	if len(data) > maxUploadSize {
		return nil, errors.ErrInvalidArgument(fmt.Sprintf("%s exceeds %d bytes", field, maxUploadSize))
	}

	return &analysis.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

// formUploads reads every file sent under field
func formUploads(c echo.Context, field string) ([]analysis.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.ErrInvalidPayload()
	}

	var out []analysis.Upload
	for _, fh := range form.File[field] {
		if fh.Size > maxUploadSize {
			return nil, errors.ErrInvalidArgument(fmt.Sprintf("%s exceeds %d bytes", field, maxUploadSize))
		}
		f, err := fh.Open()
		if err != nil {
			return nil, errors.ErrInvalidPayload()
		}
		data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
		f.Close()
		if err != nil {
			return nil, errors.ErrInvalidPayload()
		}
		out = append(out, analysis.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Data:        data,
		})
	}
	return out, nil
}
