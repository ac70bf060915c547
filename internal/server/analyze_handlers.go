package server

import (
	"context"
	"net/http"
	"os"

	"resumelens/internal/analysis"
	"resumelens/internal/ats"
	"resumelens/internal/errors"
	"resumelens/internal/observability"
	"resumelens/internal/types"
	"resumelens/internal/upload"

	"go.opentelemetry.io/otel/attribute"
)

// createAnalyzeHandler builds the match-analysis handler. The résumé comes
// from the match widget's current selection; the job target comes from the
// form fields job_title and jd_text.
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.analyze")
		defer span.End()

		if err := r.ParseMultipartForm(s.MaxRequestSize); err != nil {
			if err := r.ParseForm(); err != nil {
				span.RecordError(err)
				writeAppError(w, errors.NewValidationError("BAD_FORM",
					"Cannot parse request form", err))
				return
			}
		}

		sid := sessionID(ctx)
		jobTitle := r.FormValue("job_title")
		jobDescription := r.FormValue("jd_text")

		req := analysis.Request{
			SessionID:      sid,
			JobTitle:       jobTitle,
			JobDescription: jobDescription,
		}

		// The widget selection is the résumé; analyze never accepts a file
		// of its own.
		if sel, ok := s.Uploads.Current(sid, upload.WidgetMatch); ok {
			f, err := os.Open(sel.Path())
			if err != nil {
				span.RecordError(err)
				writeAppError(w, errors.NewStorageError(errors.ErrCodeFileNotReadable,
					"Cannot read selected resume", err))
				return
			}
			defer f.Close()
			req.Filename = sel.Filename
			req.File = f
		}

		metrics := om.GetMetrics()

		var result types.AnalyzeResult
		err := metrics.TrackAnalysis(ctx, func(ctx context.Context) error {
			var analyzeErr error
			result, analyzeErr = s.Analyzer.Analyze(ctx, req)
			return analyzeErr
		}, om)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		metrics.RecordScores(ctx, int(result.MatchScore), int(result.ATSScore), om)
		span.SetAttributes(
			attribute.Int("analysis.match_score", int(result.MatchScore)),
			attribute.Int("analysis.ats_score", int(result.ATSScore)),
		)

		writeJSONResponse(w, result, http.StatusOK)
	}
}

// createATSCheckHandler builds the local ATS heuristic handler. It works
// from the ats widget's selected filename alone; the file content is never
// read.
func (s *Server) createATSCheckHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.ats_check")
		defer span.End()

		sid := sessionID(ctx)

		sel, ok := s.Uploads.Current(sid, upload.WidgetATS)
		if !ok {
			err := errors.NewValidationError(errors.ErrCodeMissingResume,
				errors.MsgUploadResume, nil)
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		report := ats.Check(sel.Filename)

		om.GetMetrics().RecordATSCheck(ctx, om,
			attribute.Int("ats.score", int(report.Score)))
		span.SetAttributes(
			attribute.String("ats.filename", report.Filename),
			attribute.Int("ats.score", int(report.Score)),
		)

		writeJSONResponse(w, report, http.StatusOK)
	}
}
