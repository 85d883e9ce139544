package middleware

import "net/http"

// HeaderErrorCode carries the application error code of a failed response,
// so middleware can log and trace it without parsing the body.
const HeaderErrorCode = "X-Error-Code"

// outcome records what the handler answered: status, body size and error
// code. Flush and Unwrap are delegated so h2c streaming keeps working.
type outcome struct {
	http.ResponseWriter
	status int
	bytes  int
}

// captureOutcome wraps w once; inner middleware reuses the outer capture.
func captureOutcome(w http.ResponseWriter) *outcome {
	if o, ok := w.(*outcome); ok {
		return o
	}
	return &outcome{ResponseWriter: w}
}

func (o *outcome) WriteHeader(code int) {
	if o.status == 0 {
		o.status = code
	}
	o.ResponseWriter.WriteHeader(code)
}

func (o *outcome) Write(b []byte) (int, error) {
	if o.status == 0 {
		o.status = http.StatusOK
	}
	n, err := o.ResponseWriter.Write(b)
	o.bytes += n
	return n, err
}

// Status is the response code, 200 when the handler never set one. Under
// GinWrap the handler writes to gin's writer, so it is read back from there.
func (o *outcome) Status() int {
	if o.status != 0 {
		return o.status
	}
	if gw, ok := o.ResponseWriter.(interface{ Status() int }); ok {
		return gw.Status()
	}
	return http.StatusOK
}

// Size is the number of body bytes written.
func (o *outcome) Size() int {
	if o.bytes == 0 {
		if gw, ok := o.ResponseWriter.(interface{ Size() int }); ok && gw.Size() > 0 {
			return gw.Size()
		}
	}
	return o.bytes
}

func (o *outcome) ErrorCode() string {
	return o.Header().Get(HeaderErrorCode)
}

func (o *outcome) Flush() {
	if f, ok := o.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (o *outcome) Unwrap() http.ResponseWriter {
	return o.ResponseWriter
}
