package models

import "time"

type DocumentKind string

const (
	DocumentInsurance DocumentKind = "insurance"
	DocumentMedical   DocumentKind = "medical"
)

const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Document is the metadata row for a file attached to a booking. The bytes live in object storage.
type Document struct {
	ID           string         `bson:"id" json:"id"`
	BookingID    string         `bson:"booking_id" json:"booking_id"`
	Kind         DocumentKind   `bson:"kind" json:"kind"`
	DocumentType string         `bson:"document_type" json:"documentType"` // e.g. "policy", "lab_report"
	FileURL      string         `bson:"file_url" json:"fileUrl"`
	FileID       string         `bson:"file_id" json:"fileId"`
	FileName     string         `bson:"file_name" json:"fileName"`
	FileSize     int64          `bson:"file_size" json:"fileSize"`
	ContentType  string         `bson:"content_type,omitempty" json:"contentType,omitempty"`
	Meta         map[string]any `bson:"meta,omitempty" json:"meta,omitempty"`
	UploadedBy   string         `bson:"uploaded_by" json:"uploadedBy"`
	UploadedAt   time.Time      `bson:"uploaded_at" json:"uploadedAt"`

	IsVerified         bool       `bson:"is_verified" json:"isVerified"`
	VerificationStatus string     `bson:"verification_status" json:"verificationStatus"`
	VerificationDate   *time.Time `bson:"verification_date,omitempty" json:"verificationDate,omitempty"`
	VerificationNotes  string     `bson:"verification_notes,omitempty" json:"verificationNotes,omitempty"`
	VerifiedBy         string     `bson:"verified_by,omitempty" json:"verifiedBy,omitempty"`

	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
	DeletedBy string     `bson:"deleted_by,omitempty" json:"deletedBy,omitempty"`
}
