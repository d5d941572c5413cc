package api

// Response status values
const (
	StatusSuccess = "success"
)

// Response is the envelope every successful JSON response uses
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

// Success wraps data in a success envelope
func Success(data interface{}) Response {
	return Response{Status: StatusSuccess, Data: data}
}
