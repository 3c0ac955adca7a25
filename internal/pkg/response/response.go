// Package response is the single place handlers shape wire output. Errors go
// out with HTTP 200 and an application code in the envelope, so clients only
// branch on one field.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

// Code satisfies the envelope writer's coded-error contract.
func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code int, msg string) error {
	return codeErr{code: uint32(code), msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, AsCodeErr(code, message))
}
