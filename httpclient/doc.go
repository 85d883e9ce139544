// Package httpclient provides a small configurable HTTP client with typed
// errors, multipart uploads and optional retry / circuit breaking.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL:        "http://whisper:9000",
//	    Timeout:        30 * time.Second,
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("batch-http"),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/asr",
//	    Body:   &httpclient.MultipartBody{Fields: fields, Files: files},
//	})
package httpclient
