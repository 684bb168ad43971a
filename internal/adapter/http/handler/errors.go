package handler

import "net/http"

func errorResponse(w http.ResponseWriter, status int, message any) {
	env := envelope{"error": message}

	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(500)
	}
}

// serviceErrorResponse writes err with the status of its kind.
func serviceErrorResponse(w http.ResponseWriter, err error) {
	errorResponse(w, GetCode(err), errorMessage(err))
}

// failedValidationResponse returns 422 UnprocessableEntity status.
// The request was well-formed but its content breaks a field rule; repeating it
// unchanged fails the same way.
func failedValidationResponse(w http.ResponseWriter, errors map[string]string) {
	errorResponse(w, http.StatusUnprocessableEntity, errors)
}

// badRequestResponse returns 400 BadRequest status for bodies that could not be decoded.
func badRequestResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusBadRequest, message)
}

func internalErrorResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusInternalServerError, message)
}
