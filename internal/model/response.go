package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewMeta(query PageQuery, total int) *Meta {
	totalPages := 0
	if query.Limit > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}

	return &Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}
}
