package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// MockS3Uploader мок для S3 uploader
type MockS3Uploader struct {
	uploadFunc func(input *s3manager.UploadInput) (*s3manager.UploadOutput, error)
}

func (m *MockS3Uploader) UploadWithContext(ctx context.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.uploadFunc(input)
}

// MockS3Client мок для S3 клиента
type MockS3Client struct {
	headObjectFunc   func(input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error)
	deleteObjectFunc func(input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error)
}

func (m *MockS3Client) HeadObjectWithContext(ctx context.Context, input *s3.HeadObjectInput, opts ...request.Option) (*s3.HeadObjectOutput, error) {
	return m.headObjectFunc(input)
}

func (m *MockS3Client) DeleteObjectWithContext(ctx context.Context, input *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error) {
	return m.deleteObjectFunc(input)
}

func testConfig() *Config {
	return &Config{
		Region:     "us-east-1",
		AccessKey:  "test-access-key",
		SecretKey:  "test-secret-key",
		Endpoint:   "https://s3.amazonaws.com",
		BucketName: "test-bucket",
	}
}

// TestSuccessfulUpload тестирует успешную загрузку файла в S3
func TestSuccessfulUpload(t *testing.T) {
	mockUploader := &MockS3Uploader{
		uploadFunc: func(input *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
			// Проверяем, что переданные параметры корректны
			if aws.StringValue(input.Bucket) != "test-bucket" {
				t.Errorf("Ожидался bucket: test-bucket, получено: %s", aws.StringValue(input.Bucket))
			}
			if aws.StringValue(input.Key) != "mixdowns/song.wav" {
				t.Errorf("Ожидался key: mixdowns/song.wav, получено: %s", aws.StringValue(input.Key))
			}
			if aws.StringValue(input.ContentType) != "audio/wav" {
				t.Errorf("Ожидался ContentType: audio/wav, получено: %s", aws.StringValue(input.ContentType))
			}

			body, err := io.ReadAll(input.Body)
			if err != nil {
				t.Errorf("Ошибка чтения тела запроса: %v", err)
			}
			if string(body) != "RIFF" {
				t.Errorf("Ожидалось содержимое: RIFF, получено: %s", string(body))
			}

			return &s3manager.UploadOutput{}, nil
		},
	}

	uploader := newUploader(testConfig(), mockUploader, &MockS3Client{})

	url, err := uploader.UploadFile(context.Background(), strings.NewReader("RIFF"), "mixdowns/song.wav", "audio/wav")
	if err != nil {
		t.Fatalf("Неожиданная ошибка при загрузке: %v", err)
	}

	expectedURL := "https://s3.amazonaws.com/test-bucket/mixdowns/song.wav"
	if url != expectedURL {
		t.Errorf("Ожидался URL: %s, получено: %s", expectedURL, url)
	}
}

// TestUploadErrorHandling тестирует обработку ошибок при загрузке
func TestUploadErrorHandling(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{"InvalidCredentials", awserr.New("InvalidAccessKeyId", "The AWS Access Key Id you provided does not exist in our records.", nil)},
		{"NetworkError", awserr.New("RequestTimeout", "Request timeout", nil)},
		{"BucketAccessError", awserr.New("AccessDenied", "Access Denied", nil)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockUploader := &MockS3Uploader{
				uploadFunc: func(input *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
					return nil, tc.err
				},
			}

			uploader := newUploader(testConfig(), mockUploader, &MockS3Client{})
			_, err := uploader.UploadFile(context.Background(), strings.NewReader("x"), "song.wav", "")

			if err == nil {
				t.Fatal("Ожидалась ошибка при загрузке")
			}
			if !strings.Contains(err.Error(), "ошибка загрузки") {
				t.Errorf("Неожиданное сообщение об ошибке: %v", err)
			}
		})
	}
}

// TestUploadFileWithContext тестирует отмену загрузки через контекст
func TestUploadFileWithContext(t *testing.T) {
	mockUploader := &MockS3Uploader{
		uploadFunc: func(input *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
			t.Error("Загрузка не должна начинаться после отмены контекста")
			return &s3manager.UploadOutput{}, nil
		},
	}

	uploader := newUploader(testConfig(), mockUploader, &MockS3Client{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := uploader.UploadFile(ctx, strings.NewReader("x"), "song.wav", ""); err == nil {
		t.Error("Ожидалась ошибка при отмененном контексте")
	}
}

// TestExists тестирует проверку наличия объекта
func TestExists(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
		wantErr  bool
	}{
		{"Found", nil, true, false},
		{"NotFound", awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), 404, "req-1"), false, false},
		{"Forbidden", awserr.NewRequestFailure(awserr.New("Forbidden", "Forbidden", nil), 403, "req-2"), false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := &MockS3Client{
				headObjectFunc: func(input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
					if aws.StringValue(input.Key) != "mixdowns/song.wav" {
						t.Errorf("Неверный ключ: %s", aws.StringValue(input.Key))
					}
					if tc.err != nil {
						return nil, tc.err
					}
					return &s3.HeadObjectOutput{}, nil
				},
			}

			uploader := newUploader(testConfig(), &MockS3Uploader{}, client)
			exists, err := uploader.Exists(context.Background(), "mixdowns/song.wav")

			if (err != nil) != tc.wantErr {
				t.Errorf("Ошибка: %v, ожидалась ошибка: %v", err, tc.wantErr)
			}
			if exists != tc.expected {
				t.Errorf("Ожидалось %v, получено %v", tc.expected, exists)
			}
		})
	}
}

// TestDeleteFile тестирует удаление файла из S3
func TestDeleteFile(t *testing.T) {
	t.Run("SuccessfulDelete", func(t *testing.T) {
		client := &MockS3Client{
			deleteObjectFunc: func(input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
				if aws.StringValue(input.Bucket) != "test-bucket" {
					t.Errorf("Ожидался bucket: test-bucket, получено: %s", aws.StringValue(input.Bucket))
				}
				if aws.StringValue(input.Key) != "mixdowns/song.wav" {
					t.Errorf("Ожидался key: mixdowns/song.wav, получено: %s", aws.StringValue(input.Key))
				}
				return &s3.DeleteObjectOutput{}, nil
			},
		}

		uploader := newUploader(testConfig(), &MockS3Uploader{}, client)
		if err := uploader.DeleteFile(context.Background(), "mixdowns/song.wav"); err != nil {
			t.Errorf("Неожиданная ошибка при удалении: %v", err)
		}
	})

	t.Run("DeleteError", func(t *testing.T) {
		client := &MockS3Client{
			deleteObjectFunc: func(input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
				return nil, awserr.New("NoSuchKey", "The specified key does not exist.", nil)
			},
		}

		uploader := newUploader(testConfig(), &MockS3Uploader{}, client)
		err := uploader.DeleteFile(context.Background(), "missing.wav")
		if err == nil {
			t.Fatal("Ожидалась ошибка при удалении")
		}
		if !strings.Contains(err.Error(), "ошибка удаления файла из S3") {
			t.Errorf("Неожиданное сообщение об ошибке: %v", err)
		}
	})
}

// TestURL тестирует формирование адреса объекта
func TestURL(t *testing.T) {
	testCases := []struct {
		name     string
		endpoint string
		expected string
	}{
		{"CustomEndpoint", "https://storage.example.com/", "https://storage.example.com/test-bucket/a.wav"},
		{"DefaultEndpoint", "", "https://s3.us-east-1.amazonaws.com/test-bucket/a.wav"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := testConfig()
			config.Endpoint = tc.endpoint
			uploader := newUploader(config, &MockS3Uploader{}, &MockS3Client{})
			if url := uploader.URL("a.wav"); url != tc.expected {
				t.Errorf("Ожидался URL: %s, получено: %s", tc.expected, url)
			}
		})
	}
}

// TestNewUploader тестирует создание нового uploader
func TestNewUploader(t *testing.T) {
	config := testConfig()

	uploader, err := NewUploader(config)
	if err != nil {
		t.Fatalf("Неожиданная ошибка при создании uploader: %v", err)
	}
	if uploader.config != config {
		t.Error("Конфигурация должна быть сохранена")
	}
	if uploader.s3Uploader == nil || uploader.s3Client == nil {
		t.Error("Клиенты S3 должны быть созданы")
	}
}
