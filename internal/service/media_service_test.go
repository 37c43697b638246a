package service

import (
	"strings"
	"testing"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/storage"
)

func file(name, contentType, body string) FileInput {
	return FileInput{FileName: name, ContentType: contentType, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestMediaService(t *testing.T) {
	f := newFixture(t)
	objects := storage.NewMemoryStorage("http://cdn.test")
	svc := NewMediaService(f.store.Users(), f.store.Uploads(), objects, 16)
	owner := f.addUser(t, "owner", domain.RoleClient)

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name  string
			proof bool
			in    FileInput
			want  error
		}{
			{"empty", true, FileInput{FileName: "a.png", ContentType: "image/png"}, ErrNoFile},
			{"too large", true, file("a.png", "image/png", strings.Repeat("x", 17)), ErrFileTooLarge},
			{"pdf proof", true, file("a.pdf", "application/pdf", "pdf"), ErrUnsupportedFile},
			{"video avatar", false, file("a.mp4", "video/mp4", "vid"), ErrUnsupportedFile},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var err error
				if tt.proof {
					_, err = svc.UploadProof(f.ctx, owner.ID, tt.in)
				} else {
					_, err = svc.UploadAvatar(f.ctx, owner.ID, tt.in)
				}
				wantErr(t, err, tt.want)
			})
		}
		if objects.Len() != 0 {
			t.Errorf("rejected uploads reached storage")
		}
	})

	t.Run("proof", func(t *testing.T) {
		up, err := svc.UploadProof(f.ctx, owner.ID, file("Run.MP4", "video/mp4", "video"))
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		prefix := "proof/" + owner.ID.Hex() + "/"
		if !strings.HasPrefix(up.ObjectKey, prefix) || !strings.HasSuffix(up.ObjectKey, ".mp4") {
			t.Errorf("object key = %q", up.ObjectKey)
		}
		if up.URL != "http://cdn.test/"+up.ObjectKey {
			t.Errorf("url = %q", up.URL)
		}
		data, ct, ok := objects.Get(up.ObjectKey)
		if !ok || string(data) != "video" || ct != "video/mp4" {
			t.Errorf("stored object = %q %q %v", data, ct, ok)
		}
	})

	t.Run("avatar replaces previous", func(t *testing.T) {
		first, err := svc.UploadAvatar(f.ctx, owner.ID, file("me.png", "image/png", "one"))
		if err != nil {
			t.Fatalf("first avatar: %v", err)
		}
		second, err := svc.UploadAvatar(f.ctx, owner.ID, file("me.jpg", "image/jpeg", "two"))
		if err != nil {
			t.Fatalf("second avatar: %v", err)
		}
		if got := f.reload(t, owner.ID).Profile.AvatarURL; got != second.URL {
			t.Errorf("avatar url = %q, want %q", got, second.URL)
		}
		if _, _, ok := objects.Get(first.ObjectKey); ok {
			t.Errorf("previous avatar object was kept")
		}
		if _, err := f.store.Uploads().GetByURL(f.ctx, first.URL); err == nil {
			t.Errorf("previous avatar record was kept")
		}
	})
}
