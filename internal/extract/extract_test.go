package extract

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForFilename(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    string
		wantErr bool
	}{
		{name: "csv", file: "users.csv", want: "csv"},
		{name: "upper case csv", file: "USERS.CSV", want: "csv"},
		{name: "json", file: "export/users.json", want: "json"},
		{name: "pdf", file: "report.pdf", wantErr: true},
		{name: "no extension", file: "users", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := ForFilename(tt.file)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ex.String())
		})
	}
}

func TestCSV_Extract(t *testing.T) {
	doc := "Name,Grade,Last Login,last_participation,intro,extra\n" +
		"Hong Gildong,3,2024-05-01,2024-04-20,Hello,x\n" +
		"Kim,1,2024-05-02T10:00:00Z,,\"Multi, part\",y\n" +
		"Lee,3,,,,\n"

	users, err := NewCSV().Extract(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, users, 3)

	assert.Equal(t, "Hong Gildong", users[0].Name)
	assert.Equal(t, 3, users[0].Grade)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), users[0].LastLogin)
	assert.Equal(t, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC), users[0].LastParticipation)
	assert.Equal(t, "Hello", users[0].Intro)

	assert.Equal(t, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), users[1].LastLogin.UTC())
	assert.True(t, users[1].LastParticipation.IsZero())
	assert.Equal(t, "Multi, part", users[1].Intro)

	assert.Equal(t, "Lee", users[2].Name)
	assert.True(t, users[2].LastLogin.IsZero())
	assert.Empty(t, users[2].ID, "ids are assigned by the store")
}

func TestCSV_Extract_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "missing grade column", doc: "name\nKim\n", wantErr: "missing the \"grade\" column"},
		{name: "non numeric grade", doc: "name,grade\nKim,three\n", wantErr: "row 2: invalid grade \"three\""},
		{name: "bad date", doc: "name,grade,last_login\nKim,1,yesterday\n", wantErr: "row 2: last_login: invalid date"},
		{name: "bare quote", doc: "name,grade\nKi\"m,1\n", wantErr: "failed to read csv row 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSV().Extract(context.Background(), strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCSV_Extract_Empty(t *testing.T) {
	users, err := NewCSV().Extract(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = NewCSV().Extract(context.Background(), strings.NewReader("name,grade\n"))
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCSV_Extract_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSV().Extract(ctx, strings.NewReader("name,grade\nKim,1\n"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestJSON_Extract(t *testing.T) {
	doc := `[
		{"name": "Hong Gildong", "grade": 3, "lastLogin": "2024-05-01", "lastParticipation": "2024-04-20", "intro": "Hello"},
		{"name": "Kim", "grade": 1}
	]`

	users, err := NewJSON().Extract(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "Hong Gildong", users[0].Name)
	assert.Equal(t, 3, users[0].Grade)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), users[0].LastLogin)
	assert.Equal(t, 1, users[1].Grade)
	assert.True(t, users[1].LastLogin.IsZero())
}

func TestJSON_Extract_Errors(t *testing.T) {
	_, err := NewJSON().Extract(context.Background(), strings.NewReader(`{"name": "not an array"}`))
	require.Error(t, err)

	_, err = NewJSON().Extract(context.Background(), strings.NewReader(`[{"grade": 1, "lastLogin": "soon"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 0: lastLogin")

	users, err := NewJSON().Extract(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, users)
}
