package server

import (
	"net/http"

	"resumelens/internal/errors"
	"resumelens/internal/observability"
	"resumelens/internal/upload"

	"go.opentelemetry.io/otel/attribute"
)

// SelectionResponse describes a widget's selected file as the client sees
// it. The preview URL is the server-side stand-in for a blob URL.
type SelectionResponse struct {
	Widget     string `json:"widget"`
	Filename   string `json:"filename"`
	PreviewURL string `json:"previewUrl"`
}

func selectionResponse(widgetID string, sel upload.Selection) SelectionResponse {
	return SelectionResponse{
		Widget:     widgetID,
		Filename:   sel.Filename,
		PreviewURL: "/previews/" + sel.PreviewToken,
	}
}

// createUploadHandler builds the handler shared by the picker and drop
// routes. The source only flavors the trace; picker uploads and drops are
// the same operation.
func (s *Server) createUploadHandler(om *observability.ObservabilityManager, source string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.upload")
		defer span.End()

		widgetID := r.PathValue("widget")
		span.SetAttributes(
			attribute.String("upload.widget", widgetID),
			attribute.String("upload.source", source),
		)

		if !upload.ValidWidget(widgetID) {
			writeAppError(w, errors.NewValidationError("UNKNOWN_WIDGET",
				"Unknown upload widget: "+widgetID, nil))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			span.RecordError(err)
			writeAppError(w, errors.NewValidationError("MISSING_FILE",
				"No file in upload request", err))
			return
		}
		defer file.Close()

		sid := sessionID(ctx)
		filename := upload.CleanFilename(header.Filename)

		sel, err := s.Uploads.Select(sid, widgetID, filename, file)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		om.GetMetrics().RecordUpload(ctx, widgetID, om)
		span.SetAttributes(attribute.String("upload.filename", filename))

		writeJSONResponse(w, selectionResponse(widgetID, sel), http.StatusOK)
	}
}

// widgetSelectionHandler reports the widget's current selection
func (s *Server) widgetSelectionHandler(w http.ResponseWriter, r *http.Request) {
	widgetID := r.PathValue("widget")
	if !upload.ValidWidget(widgetID) {
		writeAppError(w, errors.NewValidationError("UNKNOWN_WIDGET",
			"Unknown upload widget: "+widgetID, nil))
		return
	}

	sid := sessionID(r.Context())
	sel, ok := s.Uploads.Current(sid, widgetID)
	if !ok {
		writeJSONResponse(w, map[string]any{
			"widget":   widgetID,
			"selected": false,
		}, http.StatusOK)
		return
	}

	resp := selectionResponse(widgetID, sel)
	writeJSONResponse(w, map[string]any{
		"widget":     widgetID,
		"selected":   true,
		"filename":   resp.Filename,
		"previewUrl": resp.PreviewURL,
	}, http.StatusOK)
}

// clearWidgetHandler drops the widget's selection. Clearing an empty
// widget succeeds.
func (s *Server) clearWidgetHandler(w http.ResponseWriter, r *http.Request) {
	widgetID := r.PathValue("widget")
	if !upload.ValidWidget(widgetID) {
		writeAppError(w, errors.NewValidationError("UNKNOWN_WIDGET",
			"Unknown upload widget: "+widgetID, nil))
		return
	}

	sid := sessionID(r.Context())
	s.Uploads.Clear(sid, widgetID)

	writeJSONResponse(w, map[string]any{
		"widget":   widgetID,
		"selected": false,
	}, http.StatusOK)
}

// previewHandler serves the spooled file behind a preview token. Revoked
// and expired tokens are indistinguishable from ones that never existed.
func (s *Server) previewHandler(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	path, ok := s.Uploads.Preview(token)
	if !ok {
		writeErrorResponse(w, "Preview not found",
			"The preview reference is unknown, revoked, or expired", http.StatusNotFound)
		return
	}

	http.ServeFile(w, r, path)
}
