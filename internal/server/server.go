package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/po-matcher/internal/common"
	"github.com/joseph-ayodele/po-matcher/internal/document"
	"github.com/joseph-ayodele/po-matcher/internal/pipeline"
)

// Comparer runs one invoice/purchase order comparison.
type Comparer interface {
	Compare(ctx context.Context, invoice, po document.Source) (pipeline.Comparison, error)
}

// HTTPStatus maps an application error onto an HTTP status code.
func HTTPStatus(err error) int {
	switch common.CodeOf(err) {
	case common.CodeMissingInput, common.CodeInvalidInput:
		return http.StatusBadRequest
	case common.CodeExtraction, common.CodeRendering:
		return http.StatusBadGateway
	case common.CodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func newRequestID() string {
	return uuid.NewString()
}
