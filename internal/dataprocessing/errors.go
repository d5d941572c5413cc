package dataprocessing

import "errors"

// Table loading and transform errors
var (
	ErrEmptyFile           = errors.New("csv file is empty")
	ErrHeaderRowOutOfRange = errors.New("header row is beyond the end of the file")
	ErrRaggedRow           = errors.New("row has more fields than the header")
	ErrColumnNotFound      = errors.New("column not found")
	ErrNotNumeric          = errors.New("column is not numeric")
	ErrUnknownScaler       = errors.New("unknown scaler")
	ErrUnknownFillStrategy = errors.New("unknown fill strategy")
)
