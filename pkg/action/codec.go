package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrMalformedResult reports a response body that does not match the wire
// contract. Clients treat it like a transport failure.
var ErrMalformedResult = errors.New("action: malformed result")

type wireResult struct {
	Success      *bool        `json:"success"`
	SubmissionID string       `json:"submissionId,omitempty"`
	Timestamp    string       `json:"timestamp,omitempty"`
	Error        *wireFailure `json:"error,omitempty"`
}

type wireFailure struct {
	Type    ErrorType           `json:"type"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// MarshalJSON encodes the result in its wire shape.
func (r Result) MarshalJSON() ([]byte, error) {
	success := r.Success
	out := wireResult{Success: &success}
	if r.Success {
		out.SubmissionID = r.SubmissionID
		out.Timestamp = r.SubmittedAt.UTC().Format(time.RFC3339Nano)
		return json.Marshal(out)
	}

	failure := r.Error
	if failure == nil {
		failure = &Failure{Type: ErrorTypeUnknown, Message: GenericMessage}
	}
	wf := &wireFailure{Type: failure.Type}
	if failure.Type == ErrorTypeValidation {
		wf.Errors = failure.Fields
		if wf.Errors == nil {
			wf.Errors = map[string][]string{}
		}
	} else {
		wf.Message = failure.Message
	}
	out.Error = wf
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire shape, rejecting unknown failure tags and
// bodies missing the success marker or the error record.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in wireResult
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if in.Success == nil {
		return fmt.Errorf("%w: missing success marker", ErrMalformedResult)
	}

	if *in.Success {
		at, err := time.Parse(time.RFC3339Nano, in.Timestamp)
		if err != nil {
			return fmt.Errorf("%w: timestamp: %v", ErrMalformedResult, err)
		}
		*r = Succeeded(in.SubmissionID, at)
		return nil
	}

	if in.Error == nil {
		return fmt.Errorf("%w: failure without error record", ErrMalformedResult)
	}
	if !in.Error.Type.Valid() {
		return fmt.Errorf("%w: unknown error type %q", ErrMalformedResult, in.Error.Type)
	}
	failure := &Failure{Type: in.Error.Type}
	if in.Error.Type == ErrorTypeValidation {
		failure.Fields = in.Error.Errors
	} else {
		failure.Message = in.Error.Message
	}
	*r = Result{Error: failure}
	return nil
}

// DecodeResult reads a single wire result from r.
func DecodeResult(r io.Reader) (Result, error) {
	var result Result
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		if errors.Is(err, ErrMalformedResult) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	return result, nil
}

// EncodeResult writes result to w in its wire shape.
func EncodeResult(w io.Writer, result Result) error {
	return json.NewEncoder(w).Encode(result)
}
