package api

import "context"

// ProfileAPI uploads the signed-in user's profile image.
type ProfileAPI struct {
	c *Client
}

func NewProfileAPI(c *Client) *ProfileAPI { return &ProfileAPI{c: c} }

// UploadImage sends content as the multipart field "image".
func (p *ProfileAPI) UploadImage(ctx context.Context, filename, contentType string, content []byte) error {
	p.c.log.V(1).Info("Uploading profile image", "file", filename, "bytes", len(content))
	return p.c.PostMultipart(ctx, "/api/profile/image", "image", filename, contentType, content, nil)
}
