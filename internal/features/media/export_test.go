package media

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExportProducesWorkbook(t *testing.T) {
	mediaRepo := NewMockMediaRepo()
	service := newTestService(mediaRepo, NewMockChunkRepo())
	ctx := context.Background()

	uploadBytes(t, service, []byte("abcdefgh"), UploadParams{
		Filename: "one.jpg",
		OwnerID:  "user1",
		Tags:     []string{"beach"},
	})
	uploadBytes(t, service, []byte("ijkl"), UploadParams{
		Filename: "two.jpg",
		OwnerID:  "user2",
	})

	data, filename, err := service.Export(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("Expected .xlsx filename, got %q", filename)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Exported bytes are not a readable workbook: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows("Files")
	if err != nil {
		t.Fatalf("Reading Files sheet failed: %v", err)
	}
	if len(rows) != 3 { // header + 2 files
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "File ID" || rows[0][1] != "Filename" {
		t.Errorf("Unexpected header row: %v", rows[0])
	}

	var filenames []string
	for _, row := range rows[1:] {
		filenames = append(filenames, row[1])
	}
	for _, want := range []string{"one.jpg", "two.jpg"} {
		found := false
		for _, got := range filenames {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %s in export, got %v", want, filenames)
		}
	}
}

func TestExportHonorsFilter(t *testing.T) {
	mediaRepo := NewMockMediaRepo()
	service := newTestService(mediaRepo, NewMockChunkRepo())
	ctx := context.Background()

	uploadBytes(t, service, []byte("abcd"), UploadParams{Filename: "mine.jpg", OwnerID: "user1"})
	uploadBytes(t, service, []byte("efgh"), UploadParams{Filename: "theirs.jpg", OwnerID: "user2"})

	data, _, err := service.Export(ctx, ListFilter{OwnerID: "user1"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Opening workbook failed: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows("Files")
	if err != nil {
		t.Fatalf("Reading Files sheet failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected header + 1 filtered row, got %d rows", len(rows))
	}
	if rows[1][1] != "mine.jpg" {
		t.Errorf("Expected mine.jpg, got %q", rows[1][1])
	}
}
