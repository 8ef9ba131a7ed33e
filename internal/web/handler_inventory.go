package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jmhart/boxinv/internal/domain"
	"github.com/jmhart/boxinv/internal/service"
)

const maxNameLen = 200

// itemRequest is the JSON body for creating and updating items. References
// are submitted as display names and reconciled server side.
type itemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Barcode     string `json:"barcode"`
	Category    string `json:"category"`
	Room        string `json:"room"`
	Sector      string `json:"sector"`
	Shelf       string `json:"shelf"`
	BoxType     string `json:"boxType"`
	Box         string `json:"box"`
}

func (req itemRequest) input() service.ItemInput {
	return service.ItemInput{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Barcode:     strings.TrimSpace(req.Barcode),
		Category:    req.Category,
		Room:        req.Room,
		Sector:      req.Sector,
		Shelf:       req.Shelf,
		BoxType:     req.BoxType,
		Box:         req.Box,
	}
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list items")
		s.logger.Error("list items failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || len(req.Name) > maxNameLen {
		s.writeError(w, http.StatusBadRequest, "item name required")
		return
	}

	item, err := s.service.CreateItem(r.Context(), req.input())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to create item")
		s.logger.Error("create item failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := s.service.GetItem(r.Context(), itemID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to get item")
		s.logger.Error("get item failed", "item_id", itemID, "error", err)
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || len(req.Name) > maxNameLen {
		s.writeError(w, http.StatusBadRequest, "item name required")
		return
	}

	item, err := s.service.UpdateItem(r.Context(), itemID, req.input())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to update item")
		s.logger.Error("update item failed", "item_id", itemID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := s.service.DeleteItem(r.Context(), itemID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to delete item")
		s.logger.Error("delete item failed", "item_id", itemID, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req struct {
		Box string `json:"box"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := s.service.MoveItem(r.Context(), itemID, req.Box)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to move item")
		s.logger.Error("move item failed", "item_id", itemID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

const maxImageSize = 50 * 1024 * 1024 // 50 MB

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	item, err := s.service.AttachItemImage(r.Context(), itemID, file)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to store image")
		s.logger.Error("upload image failed", "item_id", itemID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	rc, err := s.service.OpenItemImage(r.Context(), itemID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Error("write image failed", "item_id", itemID, "error", err)
	}
}

type boxRequest struct {
	Name    string `json:"name"`
	Room    string `json:"room"`
	Sector  string `json:"sector"`
	Shelf   string `json:"shelf"`
	BoxType string `json:"boxType"`
}

func (s *Server) handleListBoxes(w http.ResponseWriter, r *http.Request) {
	boxes, err := s.service.ListBoxes(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list boxes")
		s.logger.Error("list boxes failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, boxes)
}

func (s *Server) handleCreateBox(w http.ResponseWriter, r *http.Request) {
	var req boxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLen {
		s.writeError(w, http.StatusBadRequest, "box name required")
		return
	}

	box, err := s.service.CreateBox(r.Context(), name, req.Room, req.Sector, req.Shelf, req.BoxType)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to create box")
		s.logger.Error("create box failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, box)
}

func (s *Server) handleDeleteBox(w http.ResponseWriter, r *http.Request) {
	boxID, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid box id")
		return
	}

	if err := s.service.DeleteBox(r.Context(), boxID); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to delete box")
		s.logger.Error("delete box failed", "box_id", boxID, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRefs(w http.ResponseWriter, r *http.Request) {
	kind := domain.RefKind(r.PathValue("kind"))
	valid := false
	for _, k := range domain.RefKinds {
		if k == kind {
			valid = true
			break
		}
	}
	if !valid {
		s.writeError(w, http.StatusBadRequest, "unknown reference kind")
		return
	}

	refs, err := s.service.ListRefs(r.Context(), kind)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list references")
		s.logger.Error("list refs failed", "kind", kind, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, refs)
}

func (s *Server) handleDeleteRef(w http.ResponseWriter, r *http.Request) {
	refID, err := parseID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid reference id")
		return
	}

	if err := s.service.DeleteRef(r.Context(), refID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to delete reference")
		s.logger.Error("delete ref failed", "ref_id", refID, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
