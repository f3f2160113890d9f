// Package rpc dispatches named procedures under a single HTTP route. Private
// procedures require a signed-in actor before their handler runs.
package rpc

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digitalhippo/hippo-backend/internal/i18n"
	"github.com/digitalhippo/hippo-backend/internal/session"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

// Procedure handles one call. input is the raw JSON input and may be empty.
type Procedure func(c *gin.Context, input json.RawMessage) (interface{}, error)

type procedure struct {
	handler Procedure
	private bool
}

type Router struct {
	procedures map[string]procedure
}

func NewRouter() *Router {
	return &Router{procedures: make(map[string]procedure)}
}

// Public registers a procedure callable by anyone.
func (r *Router) Public(name string, p Procedure) {
	r.procedures[name] = procedure{handler: p}
}

// Private registers a procedure that rejects anonymous callers with 401.
func (r *Router) Private(name string, p Procedure) {
	r.procedures[name] = procedure{handler: p, private: true}
}

// Handle serves /api/trpc/:procedure. Queries may pass their input as the
// "input" query parameter; mutations send it as the request body.
func (r *Router) Handle(c *gin.Context) {
	name := c.Param("procedure")
	p, ok := r.procedures[name]
	if !ok {
		utils.NotFoundResponse(c, i18n.KeyProcedureNotFound, name)
		return
	}

	if p.private && session.CurrentActor(c).IsAnonymous() {
		utils.UnauthorizedResponse(c, "")
		return
	}

	input, err := readInput(c)
	if err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	result, err := p.handler(c, input)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}

func readInput(c *gin.Context) (json.RawMessage, error) {
	if c.Request.Method == http.MethodGet {
		if raw := c.Query("input"); raw != "" {
			return json.RawMessage(raw), nil
		}
		return nil, nil
	}
	if c.Request.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Bind decodes input into dst. Empty input leaves dst untouched.
func Bind(input json.RawMessage, dst interface{}) error {
	if len(input) == 0 || string(input) == "null" {
		return nil
	}
	if err := json.Unmarshal(input, dst); err != nil {
		return utils.FieldInvalid("input", "json", "input is not valid JSON: %v", err)
	}
	return nil
}
