package jobimport

import "errors"

var (
	ErrInvalidImportRequest      = errors.New("invalid import request")
	ErrInvalidImportConfig       = errors.New("invalid import config")
	ErrStoreImportFile           = errors.New("failed to store import file")
	ErrCreateImportJob           = errors.New("failed to create import job")
	ErrUnsupportedTemplateFormat = errors.New("unsupported template format")
)
