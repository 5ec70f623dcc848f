package http_utils

// BaseResponse is the envelope every JSON answer of the HTTP layer shares.
type BaseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DataResponse struct {
	BaseResponse
	Data any `json:"data"`
}

type ValidationErrorResponse struct {
	BaseResponse
	Errors []string `json:"errors"`
}

func NewBaseResponse(success bool, msg string) BaseResponse {
	return BaseResponse{Success: success, Message: msg}
}

// NewDataResponse wraps data in a successful envelope.
func NewDataResponse(msg string, data any) DataResponse {
	return DataResponse{
		BaseResponse: NewBaseResponse(true, msg),
		Data:         data,
	}
}
