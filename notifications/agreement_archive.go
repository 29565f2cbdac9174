package notifications

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type Archiver interface {
	Archive(ctx context.Context, reference string, pdf []byte) (string, error)
}

// CloudinaryArchiver keeps a copy of each generated rental agreement.
type CloudinaryArchiver struct {
	URL    string
	Folder string
}

func (a *CloudinaryArchiver) Archive(ctx context.Context, reference string, pdf []byte) (string, error) {
	cld, err := cloudinary.NewFromURL(a.URL)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	folder := a.Folder
	if folder == "" {
		folder = "rental_agreements"
	}
	result, err := cld.Upload.Upload(ctx, bytes.NewReader(pdf), uploader.UploadParams{
		PublicID:     fmt.Sprintf("agreement_%s_%d", reference, time.Now().Unix()),
		Folder:       folder,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}
