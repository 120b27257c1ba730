package transport

import "time"

type ListDocumentsRequest struct {
	CustomerID string `form:"customerId" validate:"omitempty,uuid"`
	Tag        string `form:"tag" validate:"omitempty,max=50"`
}

type DocumentResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	SizeBytes    int64     `json:"sizeBytes"`
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	UploadDate   time.Time `json:"uploadDate"`
	Tags         []string  `json:"tags"`
	Stored       string    `json:"stored"`
}

type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
