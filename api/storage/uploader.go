package storage

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader stores report images in Cloudinary and returns their public URLs
type Uploader struct {
	cld *cloudinary.Cloudinary
}

// NewUploader builds an Uploader from a cloudinary:// connection URL
func NewUploader(cloudinaryURL string) (*Uploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &Uploader{cld: cld}, nil
}

// UploadImage uploads a single image (a base64 data URI or a remote URL) into
// the given folder and returns its secure URL.
func (u *Uploader) UploadImage(ctx context.Context, image, folder string) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, image, uploader.UploadParams{
		Folder:         folder,
		ResourceType:   "image",
		UniqueFilename: boolPtr(true),
	})
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("image upload rejected: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// UploadImages uploads a batch of images in submission order. The first
// failure aborts the batch; URLs uploaded so far are returned with the error
// so the caller can decide whether to keep or discard them.
func (u *Uploader) UploadImages(ctx context.Context, images []string, folder string) ([]string, error) {
	urls := make([]string, 0, len(images))
	for i, img := range images {
		url, err := u.UploadImage(ctx, img, folder)
		if err != nil {
			return urls, fmt.Errorf("upload %d of %d failed: %w", i+1, len(images), err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func boolPtr(b bool) *bool { return &b }
