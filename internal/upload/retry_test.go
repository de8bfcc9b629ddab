package upload_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stegosaurus21/minicms-sub001/internal/upload"
	mockuploader "github.com/stegosaurus21/minicms-sub001/internal/upload/mock"
)

func fastBackoff() retry.Backoff {
	b := retry.NewConstant(time.Millisecond * 10)
	b = retry.WithMaxRetries(3, b)
	return b
}

func TestRetryUploader(t *testing.T) {
	ctx := context.Background()

	t.Run("StoreIdentifierNoError", func(t *testing.T) {
		u := mockuploader.NewMockUploader(gomock.NewController(t))
		u.EXPECT().StoreIdentifier(gomock.Any()).Return("archive", nil).Times(1)

		actual, err := upload.NewRetryUploaderBackoff(u, fastBackoff).StoreIdentifier(ctx)
		require.NoError(t, err)
		assert.Equal(t, "archive", actual)
	})

	t.Run("ExistsErrorAfter1Try", func(t *testing.T) {
		u := mockuploader.NewMockUploader(gomock.NewController(t))

		counter := 0
		u.EXPECT().
			Exists(gomock.Any(), "sources/abc").
			DoAndReturn(func(_ context.Context, _ string) (bool, error) {
				counter++
				if counter == 2 {
					return true, nil
				}
				return false, errors.New("expected error")
			}).
			Times(2)

		actual, err := upload.NewRetryUploaderBackoff(u, fastBackoff).Exists(ctx, "sources/abc")
		require.NoError(t, err)
		assert.True(t, actual)
	})

	t.Run("UploadSeeksBeforeEachAttempt", func(t *testing.T) {
		u := mockuploader.NewMockUploader(gomock.NewController(t))
		reader := strings.NewReader("int main() {}")

		counter := 0
		u.EXPECT().
			Upload(gomock.Any(), gomock.Any(), int64(reader.Len()), "key").
			DoAndReturn(func(_ context.Context, r io.ReadSeeker, _ int64, _ string) error {
				counter++
				body, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Equal(t, "int main() {}", string(body), "reader not rewound")
				if counter < 3 {
					return errors.New("expected error")
				}
				return nil
			}).
			Times(3)

		err := upload.NewRetryUploaderBackoff(u, fastBackoff).
			Upload(ctx, reader, int64(reader.Len()), "key")
		require.NoError(t, err)
	})

	t.Run("UploadGivesUp", func(t *testing.T) {
		u := mockuploader.NewMockUploader(gomock.NewController(t))
		reader := strings.NewReader("x")

		u.EXPECT().
			Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("expected error")).
			Times(4)

		err := upload.NewRetryUploaderBackoff(u, fastBackoff).
			Upload(ctx, reader, int64(reader.Len()), "key")
		require.Error(t, err)
	})
}

func TestArchiveSource(t *testing.T) {
	ctx := context.Background()
	source := "print(1)"
	key := upload.SourceKey(strings.Repeat("0", 64))

	t.Run("SkipsExisting", func(t *testing.T) {
		u := mockuploader.NewMockUploader(gomock.NewController(t))
		u.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(true, nil)

		got, err := upload.ArchiveSource(ctx, u, source)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, "sources/"))
		assert.Len(t, got, len(key))
	})

	t.Run("UploadsMissing", func(t *testing.T) {
		u := mockuploader.NewMockUploader(gomock.NewController(t))

		var existsKey string
		u.EXPECT().Exists(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, k string) (bool, error) {
				existsKey = k
				return false, nil
			})
		u.EXPECT().Upload(gomock.Any(), gomock.Any(), int64(len(source)), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ io.ReadSeeker, _ int64, k string) error {
				assert.Equal(t, existsKey, k)
				return nil
			})

		got, err := upload.ArchiveSource(ctx, u, source)
		require.NoError(t, err)
		assert.Equal(t, existsKey, got)
	})

	t.Run("ExistsError", func(t *testing.T) {
		u := mockuploader.NewMockUploader(gomock.NewController(t))
		u.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, errors.New("boom"))

		_, err := upload.ArchiveSource(ctx, u, source)
		require.Error(t, err)
	})
}
