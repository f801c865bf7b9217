package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/psycho-baller/audora/internal/errs"
	"github.com/psycho-baller/audora/internal/identity"
	"github.com/psycho-baller/audora/internal/importer"
	"github.com/psycho-baller/audora/internal/logger"
	"github.com/psycho-baller/audora/internal/objectstore"
	"github.com/psycho-baller/audora/internal/report"
	"github.com/psycho-baller/audora/internal/speech"
	"github.com/psycho-baller/audora/internal/store"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "audora-import").Info("starting service")

	st, err := store.Open(envOr("DB_PATH", "audora.db"), log)
	if err != nil {
		log.WithError(err).Fatal("failed to open record store")
	}

	var blobs *objectstore.Store
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		blobs, err = objectstore.New(context.Background(), objectstore.Config{
			Region:    envOr("S3_REGION", "us-east-1"),
			Bucket:    bucket,
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
		})
		if err != nil {
			log.WithError(err).Fatal("failed to init object store")
		}
	} else {
		log.Warn("S3_BUCKET not set, uploads and solo imports disabled")
	}

	speechClient, err := speech.NewClient(os.Getenv("TRANSCRIBE_URL"), log)
	if err != nil {
		log.WithError(err).Fatal("failed to init speech client")
	}

	var solo importer.SoloTranscriber
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && blobs != nil {
		solo = speech.NewSoloTranscriber(key, blobs, log)
	}

	idp := identity.NewTokenProvider(os.Getenv("AUTH_SECRET"))
	imp := importer.New(st, speechClient, solo, log)

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	// presigned upload URL for an audio blob
	mux.HandleFunc("/uploads", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "uploads")
		if _, err := idp.Resolve(r); err != nil {
			writeError(w, reqLog, err)
			return
		}
		if blobs == nil {
			writeError(w, reqLog, errs.UploadFailure(errors.New("object store not configured")))
			return
		}
		uploadURL, storageRef, err := blobs.UploadURL(r.Context(), r.URL.Query().Get("content_type"))
		if err != nil {
			writeError(w, reqLog, errs.UploadFailure(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"upload_url":  uploadURL,
			"storage_ref": storageRef,
		})
	})

	// single-file import: the speech service transcribes and persists
	mux.HandleFunc("/import", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "import")
		ident, err := idp.Resolve(r)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		var body struct {
			StorageRef    string `json:"storage_ref"`
			ParticipantID string `json:"participant_id"`
			Location      string `json:"location"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.StorageRef == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		start := time.Now()
		res, err := imp.ImportSingleFile(r.Context(), ident.Subject, body.StorageRef, body.ParticipantID, body.Location)
		reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).Info("import finished")
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	// chunked import: pre-split recordings merged server-side
	mux.HandleFunc("/import/chunked", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "import-chunked")
		ident, err := idp.Resolve(r)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		var body struct {
			StorageRefs   []string `json:"storage_refs"`
			ParticipantID string   `json:"participant_id"`
			Location      string   `json:"location"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		reqLog = reqLog.WithField("chunks", len(body.StorageRefs))
		start := time.Now()
		res, err := imp.ImportChunked(r.Context(), ident.Subject, body.StorageRefs, body.ParticipantID, body.Location)
		reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).Info("chunked import finished")
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	// solo import: Whisper, no diarization
	mux.HandleFunc("/import/solo", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "import-solo")
		ident, err := idp.Resolve(r)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		if solo == nil {
			http.Error(w, "solo transcription not configured", http.StatusServiceUnavailable)
			return
		}
		var body struct {
			StorageRef string `json:"storage_ref"`
			Location   string `json:"location"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.StorageRef == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		res, err := imp.ImportSolo(r.Context(), ident.Subject, body.StorageRef, body.Location)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	// first-login sync: creates the user row with a fresh invite code
	mux.HandleFunc("/users/sync", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "users-sync")
		ident, err := idp.Resolve(r)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		var body struct {
			InvitedByCode string `json:"invited_by_code"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		user, err := st.UpsertUser(r.Context(), ident, body.InvitedByCode)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	})

	// workbook export of one conversation
	mux.HandleFunc("/conversations/export", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "export")
		if _, err := idp.Resolve(r); err != nil {
			writeError(w, reqLog, err)
			return
		}
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		conv, err := st.Get(r.Context(), id)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		turns, err := st.Turns(r.Context(), id)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		names := map[string]string{}
		for _, uid := range []string{conv.InitiatorUserID, conv.ParticipantUserID} {
			if uid == "" {
				continue
			}
			if u, err := st.GetUser(r.Context(), uid); err == nil && u.Name != "" {
				names[uid] = u.Name
			}
		}
		f, err := report.Workbook(conv, turns, names)
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=conversation-%s.xlsx", id))
		if err := f.Write(w); err != nil {
			reqLog.WithError(err).Error("failed to write workbook")
		}
	})

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, log *logrus.Entry, err error) {
	log.WithField("error", err.Error()).Warn("request failed")
	status := errs.HTTPStatusOf(err)
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		writeJSON(w, status, appErr)
		return
	}
	writeJSON(w, status, map[string]string{"message": err.Error()})
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
