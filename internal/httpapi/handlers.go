package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/moldctl/internal/archive"
	"github.com/vitaliisemenov/moldctl/pkg/moldapi"
	"github.com/vitaliisemenov/moldctl/pkg/moldcache"
)

var errMissingQuery = errors.New("httpapi: required query parameter missing")
var errArchiveDisabled = errors.New("httpapi: no archive backend configured")

// validateRequest is POST /validate's body: a mold and a config to load
// and check together. Fields are validated with go-playground/validator/v10.
type validateRequest struct {
	MoldPath   string `json:"mold_path" validate:"required,filepath"`
	ConfigPath string `json:"config_path" validate:"required,filepath"`
	Version    string `json:"version" validate:"omitempty"`
}

type validateResponse struct {
	Status   string   `json:"status"`
	Messages []string `json:"messages,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	err := s.metrics.Observe("validate", func() error {
		mold, err := s.plugin.MoldRead(req.MoldPath)
		if err != nil {
			s.metrics.RecordPluginIO("jsonplugin", "mold_read", err)
			return err
		}
		defer moldapi.Destroy(mold)
		s.metrics.RecordPluginIO("jsonplugin", "mold_read", nil)

		cfg, err := s.plugin.ConfigRead(req.ConfigPath, mold)
		if err != nil {
			s.metrics.RecordPluginIO("jsonplugin", "config_read", err)
			return err
		}
		defer moldapi.Destroy(cfg)
		s.metrics.RecordPluginIO("jsonplugin", "config_read", nil)

		target := moldapi.Version1_0
		if req.Version != "" {
			if v, vErr := moldapi.VersionFromString(req.Version); vErr == nil {
				target = v
			}
		}

		status, messages := moldapi.ValidateTree(cfg, target)
		s.metrics.RecordValidationStatus(status.String())
		writeJSON(w, http.StatusOK, validateResponse{Status: status.String(), Messages: messages})
		return nil
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
	}
}

// diffRequest is POST /diff's body: two configs, bound to the same mold,
// to structurally compare.
type diffRequest struct {
	MoldPath    string `json:"mold_path" validate:"required,filepath"`
	LeftPath    string `json:"left_path" validate:"required,filepath"`
	RightPath   string `json:"right_path" validate:"required,filepath"`
}

type diffResponse struct {
	Equal bool     `json:"equal"`
	Diff  []string `json:"diff,omitempty"`
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req diffRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	err := s.metrics.Observe("compare", func() error {
		mold, err := s.plugin.MoldRead(req.MoldPath)
		if err != nil {
			return err
		}
		defer moldapi.Destroy(mold)

		left, err := s.plugin.ConfigRead(req.LeftPath, mold)
		if err != nil {
			return err
		}
		defer moldapi.Destroy(left)

		right, err := s.plugin.ConfigRead(req.RightPath, mold)
		if err != nil {
			return err
		}
		defer moldapi.Destroy(right)

		status, report, err := moldapi.Compare(left, right)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, diffResponse{Equal: status == moldapi.StatusOK, Diff: report})
		return nil
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
	}
}

// handleElements resolves the dotted path segment against the config
// named by the ?config= and ?mold= query parameters.
func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	configPath := r.URL.Query().Get("config")
	moldPath := r.URL.Query().Get("mold")
	if configPath == "" || moldPath == "" {
		writeError(w, http.StatusBadRequest, errMissingQuery)
		return
	}

	mold, err := s.plugin.MoldRead(moldPath)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	defer moldapi.Destroy(mold)

	cfg, err := s.plugin.ConfigRead(configPath, mold)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	defer moldapi.Destroy(cfg)

	found, err := moldapi.QueryResolveContext(cfg, path)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	name, _ := moldapi.GetName(found)
	resp := map[string]interface{}{"name": name, "kind": found.Kind().String()}
	if found.Kind() == moldapi.KindKeyval {
		if v, vErr := found.Value(); vErr == nil {
			resp["value"] = v.String()
		}
		if s.cache != nil {
			target := moldapi.Version1_0
			if v := r.URL.Query().Get("version"); v != "" {
				if parsed, pErr := moldapi.VersionFromString(v); pErr == nil {
					target = parsed
				}
			}
			if moldKV, mErr := moldapi.QueryResolveContext(mold, path); mErr == nil {
				if resolved, rErr := moldcache.ResolveDefault(r.Context(), s.cache, moldKV, path, target); rErr == nil {
					resp["resolved_default"] = resolved
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// archivePutRequest is POST /archive/{group}/{entry}'s body: a version
// label and the opaque blob a plugin produced for it.
type archivePutRequest struct {
	Version string `json:"version" validate:"required"`
	Blob    string `json:"blob" validate:"required"` // base64 is left to the client; stored as raw bytes of this string
}

func (s *Server) handleArchivePut(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errArchiveDisabled)
		return
	}
	vars := mux.Vars(r)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req archivePutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.metrics.Observe("archive_put", func() error {
		return s.store.Put(r.Context(), archive.Entry{
			Group:   vars["group"],
			EntryID: vars["entry"],
			Version: req.Version,
			Blob:    []byte(req.Blob),
		})
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "stored"})
}

func (s *Server) handleArchiveGet(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errArchiveDisabled)
		return
	}
	vars := mux.Vars(r)
	entry, err := s.store.Get(r.Context(), vars["group"], vars["entry"], vars["version"])
	if err != nil {
		writeArchiveError(w, err)
		return
	}
	writeArchiveEntry(w, entry)
}

func (s *Server) handleArchiveLatest(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errArchiveDisabled)
		return
	}
	vars := mux.Vars(r)
	entry, err := s.store.Latest(r.Context(), vars["group"], vars["entry"])
	if err != nil {
		writeArchiveError(w, err)
		return
	}
	writeArchiveEntry(w, entry)
}

func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errArchiveDisabled)
		return
	}
	vars := mux.Vars(r)
	entries, err := s.store.List(r.Context(), vars["group"], vars["entry"])
	if err != nil {
		writeArchiveError(w, err)
		return
	}
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, e.Version)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"versions": versions})
}

func writeArchiveEntry(w http.ResponseWriter, e archive.Entry) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"group":     e.Group,
		"entry_id":  e.EntryID,
		"version":   e.Version,
		"blob":      string(e.Blob),
		"stored_at": e.StoredAt,
	})
}

func writeArchiveError(w http.ResponseWriter, err error) {
	if errors.Is(err, archive.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

// handleWatch upgrades to a websocket and streams a diff report every
// time the config file at ?config= changes on disk, until the client
// disconnects. This is the cluster-free analogue of k8sconfigmap watching
// a ConfigMap: moldserve re-reads the file every 2 seconds and compares it
// with the previous read rather than subscribing to an API server watch
// stream.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	moldPath := r.URL.Query().Get("mold")
	configPath := r.URL.Query().Get("config")
	if moldPath == "" || configPath == "" {
		writeError(w, http.StatusBadRequest, errMissingQuery)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("httpapi: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	mold, err := s.plugin.MoldRead(moldPath)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}
	defer moldapi.Destroy(mold)

	var baseline *moldapi.Context
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			cfg, err := s.plugin.ConfigRead(configPath, mold)
			if err != nil {
				continue
			}
			if baseline == nil {
				baseline = cfg
				_ = conn.WriteJSON(map[string]interface{}{"event": "baseline"})
				continue
			}
			status, report, err := moldapi.Compare(baseline, cfg)
			moldapi.Destroy(baseline)
			baseline = cfg
			if err != nil {
				continue
			}
			if status != moldapi.StatusOK {
				if writeErr := conn.WriteJSON(map[string]interface{}{"event": "changed", "diff": report}); writeErr != nil {
					return
				}
			}
		}
	}
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
