package models

// PredictRequest is one record as a field->value mapping. Base fields are
// required; prev_day_same_hour is optional.
type PredictRequest map[string]interface{}

// PredictBatchRequest scores several records in one call
type PredictBatchRequest struct {
	Records []map[string]interface{} `json:"records"`
}

// DashboardForm is the dashboard form submission, with the labels the form
// shows rather than the dataset codes
type DashboardForm struct {
	Season     string  `form:"season"`
	Year       int     `form:"yr"`
	Month      string  `form:"mnth"`
	Weekday    string  `form:"weekday"`
	Hour       int     `form:"hr"`
	Weather    string  `form:"weather"`
	Temp       float64 `form:"temp"`
	Atemp      float64 `form:"atemp"`
	Hum        float64 `form:"hum"`
	Windspeed  float64 `form:"windspeed"`
	Holiday    string  `form:"holiday"`
	Workingday string  `form:"workingday"`
}
