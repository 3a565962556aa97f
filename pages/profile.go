package pages

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-logr/logr"

	"library-portal/api"
	"library-portal/ui"
)

// MaxImageSize is the largest accepted profile image.
const MaxImageSize = 2 * 1024 * 1024

type ProfileService interface {
	MyProfile(ctx context.Context) (*api.LibrarianProfile, error)
}

type ImageUploader interface {
	UploadImage(ctx context.Context, filename, contentType string, content []byte) error
}

type ProfilePage struct {
	svc     ProfileService
	images  ImageUploader
	baseURL string
	log     logr.Logger

	profile   State[*api.LibrarianProfile]
	uploading bool
	success   string
	errMsg    string
}

func NewProfilePage(svc ProfileService, images ImageUploader, baseURL string, log logr.Logger) *ProfilePage {
	return &ProfilePage{svc: svc, images: images, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

func (p *ProfilePage) Profile() State[*api.LibrarianProfile] { return p.profile }
func (p *ProfilePage) Success() string                       { return p.success }
func (p *ProfilePage) ErrorMessage() string                  { return p.errMsg }

// Load fetches the profile. Unlike the lists, a failure here is shown.
func (p *ProfilePage) Load(ctx context.Context) {
	p.profile = Loading[*api.LibrarianProfile]()
	profile, err := p.svc.MyProfile(ctx)
	if err != nil {
		p.log.Error(err, "Error fetching profile")
		p.errMsg = "Failed to load profile"
		p.profile = Failed[*api.LibrarianProfile](err)
		return
	}
	p.errMsg = ""
	p.profile = Loaded(profile)
}

// ImageURL is the absolute address of the profile image, or "".
func (p *ProfilePage) ImageURL() string {
	profile, ok := p.profile.Data()
	if !ok || profile.ProfileImageURL == "" {
		return ""
	}
	return p.baseURL + profile.ProfileImageURL
}

// Upload checks content is an image of at most MaxImageSize, sends it and
// fetches the profile again to pick up the new image URL.
func (p *ProfilePage) Upload(ctx context.Context, filename string, content []byte) error {
	mtype := mimetype.Detect(content)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return p.failUpload(&Error{Message: "Please select an image file"})
	}
	if len(content) > MaxImageSize {
		p.log.V(1).Info("image too large", "size", humanize.IBytes(uint64(len(content))))
		return p.failUpload(&Error{Message: "Image size must be less than 2MB"})
	}

	p.uploading = true
	p.errMsg = ""
	defer func() { p.uploading = false }()
	if err := p.images.UploadImage(ctx, filename, mtype.String(), content); err != nil {
		p.log.Error(err, "Error uploading image")
		return p.failUpload(failure(err, "Failed to upload image"))
	}
	p.success = "Profile image uploaded successfully!"
	p.Load(ctx)
	return nil
}

func (p *ProfilePage) failUpload(e *Error) error {
	p.success = ""
	p.errMsg = e.Message
	return e
}

func initials(first, last string) string {
	var b strings.Builder
	for _, s := range []string{first, last} {
		if r := []rune(s); len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	return strings.ToUpper(b.String())
}

func (p *ProfilePage) Render(w io.Writer) {
	fmt.Fprintln(w, "My Profile")
	if p.profile.IsLoading() {
		fmt.Fprintln(w, "Loading...")
		return
	}
	if p.errMsg != "" {
		ui.Banner(w, ui.Danger, "%s", p.errMsg)
	}
	if p.success != "" {
		ui.Banner(w, ui.Success, "%s", p.success)
	}
	profile, ok := p.profile.Data()
	if !ok {
		return
	}

	photo := p.ImageURL()
	if photo == "" {
		photo = "(" + initials(profile.FirstName, profile.LastName) + ")"
	}
	label := "Upload Photo"
	if p.uploading {
		label = "Uploading"
	}
	fmt.Fprintf(w, "Photo: %s %s\n", photo, ui.Button{Label: label, Loading: p.uploading})

	tbl := ui.NewTable("Field", "Value")
	tbl.Title = "Personal Information"
	tbl.AddRow("Full Name", strings.TrimSpace(profile.FirstName+" "+profile.LastName))
	tbl.AddRow("Email", orNA(profile.Email))
	tbl.AddRow("Employee ID", orNA(profile.EmployeeID))
	tbl.AddRow("Phone", orNA(profile.Phone))
	tbl.Render(w)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
