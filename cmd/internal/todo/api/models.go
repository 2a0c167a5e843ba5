package todoapi

import (
	"time"

	"tasklist/cmd/internal/todo"
)

type createTodoRequest struct {
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

type updateTodoRequest struct {
	Task      *string `json:"task"`
	Completed *bool   `json:"completed"`
}

type todoResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Task      string    `json:"task"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listTodosResponse struct {
	Items []todoResponse `json:"items"`
	Total int            `json:"total"`
}

type statsResponse struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completion_rate"`
}

func toTodoResponse(t todo.Todo) todoResponse {
	return todoResponse{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Task:      t.Task,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toListResponse(res todo.ListResult) listTodosResponse {
	items := make([]todoResponse, 0, len(res.Items))
	for _, t := range res.Items {
		items = append(items, toTodoResponse(t))
	}
	return listTodosResponse{Items: items, Total: res.Total}
}

func toStatsResponse(st todo.Stats) statsResponse {
	return statsResponse{
		Total:          st.Total,
		Completed:      st.Completed,
		Pending:        st.Pending,
		CompletionRate: st.CompletionRate,
	}
}
