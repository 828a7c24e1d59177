package transfer

import "errors"

var (
	ErrInvalidKind     = errors.New("export type must be all or signed")
	ErrInvalidWorkbook = errors.New("file is not a readable xlsx workbook")
	ErrMissingFile     = errors.New("file is required")
)
