package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/query"
)

func TestTaskRequestDecoding(t *testing.T) {
	deadline := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body string
		want *time.Time
	}{
		{"iso string", `{"deadline": "2025-01-01T00:00:00Z"}`, &deadline},
		{"date only", `{"deadline": "2025-01-01"}`, &deadline},
		{"epoch millis", `{"deadline": 1735689600000}`, &deadline},
		{"null", `{"deadline": null}`, nil},
		{"empty string", `{"deadline": ""}`, nil},
		{"absent", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req TaskRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			got := req.ToInput().Deadline
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got))
		})
	}
}

func TestTaskRequestInvalidDeadline(t *testing.T) {
	var req TaskRequest
	err := json.Unmarshal([]byte(`{"deadline": "next tuesday"}`), &req)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Invalid deadline", fieldErr.Error())
}

func TestFlagDecoding(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{`{"completed": true}`, true},
		{`{"completed": false}`, false},
		{`{"completed": "true"}`, true},
		{`{"completed": "FALSE"}`, false},
		{`{"completed": 1}`, true},
		{`{"completed": 0}`, false},
		{`{"completed": null}`, false},
		{`{}`, false},
	}

	for _, tt := range tests {
		var req TaskRequest
		require.NoError(t, json.Unmarshal([]byte(tt.body), &req), tt.body)
		assert.Equal(t, tt.want, req.ToInput().Completed, tt.body)
	}

	var f Flag
	require.NoError(t, f.UnmarshalParam("on"))
	assert.True(t, bool(f))
}

func TestTaskRequestAssignedUser(t *testing.T) {
	var req TaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"assignedUser": null, "assignedUserName": "x"}`), &req))
	assert.Nil(t, req.ToInput().AssignedUser)

	require.NoError(t, json.Unmarshal([]byte(`{"assignedUser": "u1"}`), &req))
	require.NotNil(t, req.ToInput().AssignedUser)
	assert.Equal(t, "u1", *req.ToInput().AssignedUser)
}

func TestTimestampFormParam(t *testing.T) {
	var ts Timestamp
	require.NoError(t, ts.UnmarshalParam("1735689600000"))
	assert.True(t, ts.Set)
	assert.True(t, ts.Time.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, ts.UnmarshalParam(" "))
	assert.False(t, ts.Set)

	assert.Error(t, ts.UnmarshalParam("soon"))
}

func TestUserRequestPendingTasks(t *testing.T) {
	tests := []struct {
		body string
		want []string
	}{
		{`{"pendingTasks": ["t1", "t2"]}`, []string{"t1", "t2"}},
		{`{"pendingTasks": "t1"}`, []string{}},
		{`{"pendingTasks": null}`, []string{}},
		{`{}`, []string{}},
	}

	for _, tt := range tests {
		var req UserRequest
		require.NoError(t, json.Unmarshal([]byte(tt.body), &req), tt.body)
		assert.Equal(t, tt.want, req.ToInput().PendingTasks, tt.body)
	}

	var req UserRequest
	assert.Error(t, json.Unmarshal([]byte(`{"pendingTasks": [1]}`), &req))
}

func TestRenderTaskProjection(t *testing.T) {
	task := &models.Task{ID: "t1", Name: "T1", AssignedUserName: models.UnassignedUserName}

	assert.Same(t, task, RenderTask(task, nil))

	projection, err := query.TranslateProjection(query.Tasks, map[string]string{"select": `{"name": 1, "_id": 0}`})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "T1"}, RenderTask(task, projection))

	projection, err = query.TranslateProjection(query.Tasks, map[string]string{"select": `["-description", "-deadline", "-dateCreated", "-completed"]`})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"_id":              "t1",
		"name":             "T1",
		"assignedUser":     (*string)(nil),
		"assignedUserName": "unassigned",
	}, RenderTask(task, projection))
}

func TestRenderUserAlwaysHasPendingTasks(t *testing.T) {
	user := &models.User{ID: "u1", Name: "Alice"}

	body, err := json.Marshal(RenderUser(user, nil))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"pendingTasks":[]`)
	assert.Contains(t, string(body), `"_id":"u1"`)

	projection, err := query.TranslateProjection(query.Users, map[string]string{"select": `{"pendingTasks": 1}`})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"_id": "u1", "pendingTasks": []string{}}, RenderUser(user, projection))
}
