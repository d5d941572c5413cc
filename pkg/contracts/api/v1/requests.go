// Package api contains the HTTP contract of the dataset analysis service.
// Version v1 represents the current stable API version.
//
// Dataset endpoints take multipart/form-data with the CSV in the "file"
// field. The remaining selections travel as plain form fields named by the
// Field constants below.
package api

// Multipart form field names
const (
	FieldFile          = "file"
	FieldHeaderRow     = "header_row"
	FieldPreprocess    = "preprocess"
	FieldAll           = "all"
	FieldAnalysis      = "analysis"
	FieldTask          = "task"
	FieldModel         = "model"
	FieldTargetColumn  = "target_column"
	FieldIDColumn      = "id_column"
	FieldScaler        = "scaler"
	FieldNumericFill   = "numeric_fill"
	FieldClusterModel  = "cluster_model"
	FieldPCAComponents = "pca_components"
)

// Download formats accepted by the preprocess endpoint
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Formats lists the download formats in the order they are documented
var Formats = []string{FormatJSON, FormatCSV, FormatXLSX}

// PreprocessOptionsRequest carries the preprocessing selections
type PreprocessOptionsRequest struct {
	Scaler       string `json:"scaler,omitempty" validate:"omitempty,oneof=none standard minmax robust"`
	NumericFill  string `json:"numeric_fill,omitempty" validate:"omitempty,oneof=mean median mode"`
	IDColumn     string `json:"id_column,omitempty" validate:"omitempty,max=256"`
	TargetColumn string `json:"target_column,omitempty" validate:"omitempty,max=256,nefield=IDColumn"`
}

// PreviewRequest represents POST /api/v1/datasets/preview
type PreviewRequest struct {
	HeaderRow int `json:"header_row" validate:"min=0"`
}

// DescribeRequest represents POST /api/v1/datasets/describe
type DescribeRequest struct {
	HeaderRow  int  `json:"header_row" validate:"min=0"`
	Preprocess bool `json:"preprocess"`
	All        bool `json:"all"`
	PreprocessOptionsRequest
}

// PreprocessRequest represents POST /api/v1/datasets/preprocess
type PreprocessRequest struct {
	HeaderRow int `json:"header_row" validate:"min=0"`
	PreprocessOptionsRequest
}
