// Package analysis defines the run configuration a user selects on the form
// and the catalogue of options the form offers.
package analysis

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Type is the analysis the user picked
type Type string

const (
	TypeNone            Type = "none"
	TypeStatistical     Type = "statistical"
	TypeMachineLearning Type = "machine_learning"
	TypeClustering      Type = "clustering"
	TypePCA             Type = "pca"
)

// Delegated reports whether the analysis is carried out by the external runner
func (t Type) Delegated() bool {
	return t == TypeMachineLearning || t == TypeClustering || t == TypePCA
}

// Task is the machine learning task
type Task string

const (
	TaskClassification Task = "classification"
	TaskRegression     Task = "regression"
)

// Model is a machine learning model name
type Model string

const (
	ModelRandomForest       Model = "random_forest"
	ModelLogisticRegression Model = "logistic_regression"
	ModelLinearRegression   Model = "linear_regression"
	ModelSVM                Model = "svm"
	ModelGradientBoosting   Model = "gradient_boosting"
	ModelAdaBoost           Model = "adaboost"
	ModelXGBoost            Model = "xgboost"
)

// ClusterModel is a clustering algorithm name
type ClusterModel string

const (
	ClusterKMeans ClusterModel = "kmeans"
	ClusterDBSCAN ClusterModel = "dbscan"
)

const (
	// DefaultPCAComponents is preselected on the form
	DefaultPCAComponents = 2
	// PCAComponentCap bounds the component count regardless of column count
	PCAComponentCap = 10
)

// Column reference errors, detected once the working table is known
var (
	ErrUnknownColumn     = errors.New("column not present in dataset")
	ErrTooManyComponents = errors.New("too many PCA components for dataset")
	ErrNoFeatureColumns  = errors.New("dataset has no columns left to analyse")
)

// RunConfig is the flat set of selections submitted with a dataset
type RunConfig struct {
	Analysis      Type         `json:"analysis" validate:"required,oneof=none statistical machine_learning clustering pca"`
	Task          Task         `json:"task,omitempty" validate:"omitempty,oneof=classification regression"`
	Model         Model        `json:"model,omitempty" validate:"omitempty,oneof=random_forest logistic_regression linear_regression svm gradient_boosting adaboost xgboost"`
	TargetColumn  string       `json:"target_column,omitempty" validate:"omitempty,max=256"`
	IDColumn      string       `json:"id_column,omitempty" validate:"omitempty,max=256"`
	Scaler        string       `json:"scaler,omitempty" validate:"omitempty,oneof=none standard minmax robust"`
	NumericFill   string       `json:"numeric_fill,omitempty" validate:"omitempty,oneof=mean median mode"`
	ClusterModel  ClusterModel `json:"cluster_model,omitempty" validate:"omitempty,oneof=kmeans dbscan"`
	PCAComponents int          `json:"pca_components,omitempty" validate:"omitempty,min=1,max=10"`
	Preprocess    bool         `json:"preprocess"`
	HeaderRow     int          `json:"header_row" validate:"min=0"`
}

// WithDefaults fills unset selections the way the form preselects them
func (c RunConfig) WithDefaults() RunConfig {
	if c.Analysis == "" {
		c.Analysis = TypeNone
	}
	if c.Scaler == "" {
		c.Scaler = "none"
	}
	if c.NumericFill == "" {
		c.NumericFill = "mean"
	}
	if c.Analysis == TypePCA && c.PCAComponents == 0 {
		c.PCAComponents = DefaultPCAComponents
	}
	return c
}

// StructRules checks the selections that depend on each other. It is
// registered as a struct-level validation for RunConfig.
func StructRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(RunConfig)

	switch c.Analysis {
	case TypeMachineLearning:
		if c.Task == "" {
			sl.ReportError(c.Task, "task", "Task", "required_for", string(c.Analysis))
		}
		if c.Model == "" {
			sl.ReportError(c.Model, "model", "Model", "required_for", string(c.Analysis))
		} else if c.Task != "" && !modelSupported(c.Task, c.Model) {
			sl.ReportError(c.Model, "model", "Model", "model_for_task", string(c.Task))
		}
		if c.TargetColumn == "" {
			sl.ReportError(c.TargetColumn, "target_column", "TargetColumn", "required_for", string(c.Analysis))
		}
	case TypeClustering:
		if c.ClusterModel == "" {
			sl.ReportError(c.ClusterModel, "cluster_model", "ClusterModel", "required_for", string(c.Analysis))
		}
	}

	if c.TargetColumn != "" && c.TargetColumn == c.IDColumn {
		sl.ReportError(c.IDColumn, "id_column", "IDColumn", "nefield", "target_column")
	}
}

// CheckColumns verifies the column references against the working table.
func (c RunConfig) CheckColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col] = true
	}

	if c.Analysis == TypeMachineLearning && !present[c.TargetColumn] {
		return fmt.Errorf("%w: target column %q", ErrUnknownColumn, c.TargetColumn)
	}
	if c.IDColumn != "" && !present[c.IDColumn] {
		return fmt.Errorf("%w: id column %q", ErrUnknownColumn, c.IDColumn)
	}
	if c.Analysis.Delegated() && len(columns) == 0 {
		return ErrNoFeatureColumns
	}
	if c.Analysis == TypePCA {
		if limit := MaxComponents(len(columns)); c.PCAComponents > limit {
			return fmt.Errorf("%w: %d requested, at most %d allowed", ErrTooManyComponents, c.PCAComponents, limit)
		}
	}
	return nil
}

// MaxComponents is the largest PCA component count offered for a table
func MaxComponents(columns int) int {
	if columns < PCAComponentCap {
		return columns
	}
	return PCAComponentCap
}

// Selections echoes the selections shown before a run
func (c RunConfig) Selections() []string {
	var out []string
	switch c.Analysis {
	case TypeMachineLearning:
		out = append(out,
			fmt.Sprintf("Selected Model: %s", ModelLabel(c.Model)),
			fmt.Sprintf("Target Variable: %s", c.TargetColumn),
		)
	case TypeClustering:
		out = append(out, fmt.Sprintf("Selected Clustering Model: %s", ClusterModelLabel(c.ClusterModel)))
	case TypePCA:
		out = append(out, fmt.Sprintf("Number of Components for PCA: %d", c.PCAComponents))
	}
	return out
}
