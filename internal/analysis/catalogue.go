package analysis

// Option is one choice offered by a form widget
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Catalogue lists every choice the form offers
type Catalogue struct {
	Analyses             []Option          `json:"analyses"`
	Tasks                []Option          `json:"tasks"`
	Models               map[Task][]Option `json:"models"`
	ClusterModels        []Option          `json:"cluster_models"`
	Scalers              []Option          `json:"scalers"`
	NumericFills         []Option          `json:"numeric_fills"`
	DefaultPCAComponents int               `json:"default_pca_components"`
	PCAComponentCap      int               `json:"pca_component_cap"`
}

var analysisLabels = []Option{
	{string(TypeNone), "None"},
	{string(TypeStatistical), "Statistical Analysis"},
	{string(TypeMachineLearning), "Machine Learning"},
	{string(TypeClustering), "Clustering"},
	{string(TypePCA), "PCA"},
}

var modelLabels = map[Model]string{
	ModelRandomForest:       "Random Forest",
	ModelLogisticRegression: "Logistic Regression",
	ModelLinearRegression:   "Linear Regression",
	ModelSVM:                "Support Vector Machine",
	ModelGradientBoosting:   "Gradient Boosting",
	ModelAdaBoost:           "AdaBoost",
	ModelXGBoost:            "XGBoost",
}

// modelsByTask keeps the order the form lists them in
var modelsByTask = map[Task][]Model{
	TaskClassification: {ModelRandomForest, ModelLogisticRegression, ModelSVM, ModelGradientBoosting, ModelAdaBoost, ModelXGBoost},
	TaskRegression:     {ModelRandomForest, ModelLinearRegression, ModelSVM, ModelGradientBoosting, ModelAdaBoost, ModelXGBoost},
}

var clusterLabels = map[ClusterModel]string{
	ClusterKMeans: "KMeans",
	ClusterDBSCAN: "DBSCAN",
}

// Options returns the catalogue that drives the form widgets
func Options() Catalogue {
	models := make(map[Task][]Option, len(modelsByTask))
	for task, list := range modelsByTask {
		opts := make([]Option, len(list))
		for i, m := range list {
			opts[i] = Option{Value: string(m), Label: modelLabels[m]}
		}
		models[task] = opts
	}

	analyses := make([]Option, len(analysisLabels))
	copy(analyses, analysisLabels)

	return Catalogue{
		Analyses: analyses,
		Tasks: []Option{
			{string(TaskClassification), "Classification"},
			{string(TaskRegression), "Regression"},
		},
		Models: models,
		ClusterModels: []Option{
			{string(ClusterKMeans), clusterLabels[ClusterKMeans]},
			{string(ClusterDBSCAN), clusterLabels[ClusterDBSCAN]},
		},
		Scalers: []Option{
			{"none", "None"},
			{"standard", "Standard (z-score)"},
			{"minmax", "Min-Max"},
			{"robust", "Robust (median / IQR)"},
		},
		NumericFills: []Option{
			{"mean", "Mean"},
			{"median", "Median"},
			{"mode", "Most frequent"},
		},
		DefaultPCAComponents: DefaultPCAComponents,
		PCAComponentCap:      PCAComponentCap,
	}
}

// ModelLabel returns the display name of a model, or its value when unknown
func ModelLabel(m Model) string {
	if label, ok := modelLabels[m]; ok {
		return label
	}
	return string(m)
}

// ClusterModelLabel returns the display name of a clustering model
func ClusterModelLabel(m ClusterModel) string {
	if label, ok := clusterLabels[m]; ok {
		return label
	}
	return string(m)
}

// AnalysisLabel returns the display name of an analysis type
func AnalysisLabel(t Type) string {
	for _, o := range analysisLabels {
		if o.Value == string(t) {
			return o.Label
		}
	}
	return string(t)
}

func modelSupported(task Task, model Model) bool {
	for _, m := range modelsByTask[task] {
		if m == model {
			return true
		}
	}
	return false
}
