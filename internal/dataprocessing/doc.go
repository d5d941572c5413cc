// Package dataprocessing holds the tabular core of the analysis form: loading an
// uploaded CSV into a Table, summarising it the way a dataframe describe does,
// and the column-wise preprocessing applied before a table is handed to the
// external analysis entry point.
//
// # Data Flow
//
//	CSV upload → LoadCSV → Table → Preprocess (encode → fill → scale) → Table
//	                              ↘ Describe → Description
//
// Cells are kept as text. A cell is missing when it is empty or one of the
// usual NA spellings (see IsMissing). A column is numeric when every
// non-missing cell parses as a float64, and categorical otherwise.
//
// # Preprocessing
//
// Preprocess runs four steps over every column except the optional id column:
//
//  1. categorical columns are label-encoded, codes assigned in sorted order
//  2. missing cells are filled, numeric columns by mean and encoded
//     categorical columns by their modal code
//  3. numeric feature columns are optionally scaled (standard, minmax, robust)
//  4. a Report describing every mapping, fill value and scaler is returned
//
// Columns that are entirely missing have no mean or mode; they are left
// untouched and listed in Report.Warnings.
package dataprocessing
