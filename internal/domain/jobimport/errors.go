package jobimport

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported import format")
	ErrParse             = errors.New("unable to parse import file")
	ErrImportJobNotFound = errors.New("import job not found")
	ErrInvalidTransition = errors.New("invalid import job status transition")

	ErrValidation       = errors.New("record validation failed")
	ErrMissingCompany   = errors.New("no owning company could be resolved")
	ErrCompanyNotFound  = errors.New("company not found")
	ErrUploaderNotFound = errors.New("uploader not found")
	ErrPersistence      = errors.New("failed to persist posting")
)
