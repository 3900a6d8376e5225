package swagger

// ResponseMessage is a swagger 1.2 operation response message.
type ResponseMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var commonResponses = []ResponseMessage{
	{Code: 400, Message: "Bad Request - Request does not have a valid format, all required parameters, etc."},
	{Code: 401, Message: "Unauthorized Access - No currently valid session available."},
	{Code: 404, Message: "Not Found - Resource not found"},
	{Code: 500, Message: "System Error - Specific reason is included in the error message"},
}

// GetCommonResponses returns the shared error responses for merging into
// descriptors. With no codes every response is returned; otherwise only the
// listed codes, in canonical order.
func GetCommonResponses(codes ...int) []ResponseMessage {
	if len(codes) == 0 {
		out := make([]ResponseMessage, len(commonResponses))
		copy(out, commonResponses)
		return out
	}

	want := make(map[int]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	var out []ResponseMessage
	for _, r := range commonResponses {
		if want[r.Code] {
			out = append(out, r)
		}
	}
	return out
}
