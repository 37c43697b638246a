package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadKind says what an uploaded object is used for.
type UploadKind string

const (
	UploadAvatar UploadKind = "avatar"
	UploadProof  UploadKind = "proof"
)

// Upload stores metadata about a file placed in object storage.
type Upload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	Kind        UploadKind         `bson:"kind" json:"kind"`
	ObjectKey   string             `bson:"objectKey" json:"-"`
	URL         string             `bson:"url" json:"url"`
	FileName    string             `bson:"fileName" json:"fileName"`
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"`
	UploadedAt  time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}
