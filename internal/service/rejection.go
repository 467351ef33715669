// internal/service/rejection.go
package service

import (
	"errors"

	"fumo-economy/internal/util"
)

// errRejected aborts a transaction whose business checks failed. The code is
// reported through the operation's result, not as an error.
var errRejected = errors.New("operation rejected")

type rejection struct {
	code util.Code
}

// reject records code and returns errRejected so WithTx rolls back.
func (r *rejection) reject(code util.Code) error {
	r.code = code
	return errRejected
}

// settle folds errRejected back into a nil error.
func (r *rejection) settle(err error) (util.Code, error) {
	if errors.Is(err, errRejected) {
		return r.code, nil
	}
	return util.CodeOK, err
}
