package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope codes and their default messages.
const (
	CodeOK       = "0"
	CodeNotOK    = "-1"
	CodeNotFound = "-100"

	MsgNotOK    = "오류가 발생하였습니다. "
	MsgNotFound = "데이터가 없습니다. "
)

// Envelope is the common response shape for every endpoint: code "0" with
// the result under rs on success, a non-zero code and message on failure.
type Envelope struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Rs   any    `json:"rs,omitempty"`
}

func respOK(rs any) Envelope {
	return Envelope{Code: CodeOK, Rs: rs}
}

func respError(code, msg string) Envelope {
	return Envelope{Code: code, Msg: msg}
}

// Recovery converts a panic anywhere in the turn-handling path into the
// structured error envelope instead of a raw stack trace.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[recovery] panic: %v", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, respError(CodeNotOK, MsgNotOK))
			}
		}()
		c.Next()
	}
}
