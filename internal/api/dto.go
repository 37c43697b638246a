package api

import (
	"time"

	"github.com/PauloVieira29/Fitness/internal/domain"
	"github.com/PauloVieira29/Fitness/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Users ---

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID                   string                      `json:"id"`
	Username             string                      `json:"username"`
	Role                 domain.Role                 `json:"role"`
	IsActive             bool                        `json:"isActive"`
	Validated            bool                        `json:"validated"`
	TrainerAssigned      *string                     `json:"trainerAssigned,omitempty"`
	Profile              domain.Profile              `json:"profile"`
	Specialties          []domain.Specialty          `json:"specialties,omitempty"`
	NotificationSettings domain.NotificationSettings `json:"notificationSettings"`
	CreatedAt            time.Time                   `json:"createdAt"`
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	resp := UserResponse{
		ID:                   user.ID.Hex(),
		Username:             user.Username,
		Role:                 user.Role,
		IsActive:             user.IsActive,
		Validated:            user.Validated,
		Profile:              user.Profile,
		NotificationSettings: user.NotificationSettings,
		CreatedAt:            user.CreatedAt,
	}
	if user.TrainerAssigned != nil && !user.TrainerAssigned.IsZero() {
		hex := user.TrainerAssigned.Hex()
		resp.TrainerAssigned = &hex
	}
	return resp
}

func mapUsersToResponse(users []domain.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = MapUserToResponse(&users[i])
	}
	return out
}

func mapUserView(v *service.UserView) UserResponse {
	resp := MapUserToResponse(&v.User)
	resp.Specialties = v.Specialties
	return resp
}

// UserSummary is the public card of a user embedded in other resources.
type UserSummary struct {
	ID        string      `json:"id"`
	Username  string      `json:"username,omitempty"`
	Name      string      `json:"name,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	AvatarURL string      `json:"avatarUrl,omitempty"`
}

// mapUserSummary falls back to the bare ID when the user was not loaded.
func mapUserSummary(u *domain.User, id primitive.ObjectID) UserSummary {
	if u == nil {
		return UserSummary{ID: id.Hex()}
	}
	return UserSummary{
		ID:        u.ID.Hex(),
		Username:  u.Username,
		Name:      u.DisplayName(),
		Role:      u.Role,
		AvatarURL: u.Profile.AvatarURL,
	}
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type TrainerResponse struct {
	UserResponse
	ClientsCount int64 `json:"clientsCount"`
}

type TrainerPageResponse struct {
	Trainers []UserResponse `json:"trainers"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	Pages    int            `json:"pages"`
}

// --- Pairing ---

type TrainerRequestResponse struct {
	ID             string               `json:"id"`
	Status         domain.RequestStatus `json:"status"`
	Client         UserSummary          `json:"client"`
	CurrentTrainer *UserSummary         `json:"currentTrainer,omitempty"`
	NewTrainer     UserSummary          `json:"newTrainer"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

func mapRequestView(v *service.RequestView) TrainerRequestResponse {
	r := v.Request
	resp := TrainerRequestResponse{
		ID:         r.ID.Hex(),
		Status:     r.Status,
		Client:     mapUserSummary(v.Client, r.Client),
		NewTrainer: mapUserSummary(v.NewTrainer, r.NewTrainer),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.CurrentTrainer != nil {
		current := mapUserSummary(v.CurrentTrainer, *r.CurrentTrainer)
		resp.CurrentTrainer = &current
	}
	return resp
}

func mapRequestViews(views []service.RequestView) []TrainerRequestResponse {
	out := make([]TrainerRequestResponse, len(views))
	for i := range views {
		out[i] = mapRequestView(&views[i])
	}
	return out
}

// --- Plans ---

type PlanResponse struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Weeks           int                 `json:"weeks"`
	SessionsPerWeek int                 `json:"sessionsPerWeek"`
	Days            []domain.WorkoutDay `json:"days"`
	Notes           string              `json:"notes,omitempty"`
	IsFromTemplate  bool                `json:"isFromTemplate"`
	Trainer         UserSummary         `json:"trainer"`
	Client          UserSummary         `json:"client"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func mapPlanView(v *service.PlanView) PlanResponse {
	p := v.Plan
	days := p.Days
	if days == nil {
		days = []domain.WorkoutDay{}
	}
	return PlanResponse{
		ID:              p.ID.Hex(),
		Name:            p.Name,
		Weeks:           p.Weeks,
		SessionsPerWeek: p.SessionsPerWeek,
		Days:            days,
		Notes:           p.Notes,
		IsFromTemplate:  p.IsFromTemplate,
		Trainer:         mapUserSummary(v.Trainer, p.Trainer),
		Client:          mapUserSummary(v.Client, p.Client),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type PlanStatsResponse struct {
	WorkoutsThisMonth   int     `json:"workoutsThisMonth"`
	WeeklyAdherence     string  `json:"weeklyAdherence"`
	CaloriesToday       float64 `json:"caloriesToday"`
	WeightLostThisMonth string  `json:"weightLostThisMonth"`
}

// --- Messaging ---

type ConversationProfile struct {
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type ConversationResponse struct {
	PartnerID       string              `json:"_id"`
	Username        string              `json:"username"`
	Profile         ConversationProfile `json:"profile"`
	LastMessage     string              `json:"lastMessage"`
	LastMessageDate time.Time           `json:"lastMessageDate"`
	Unread          bool                `json:"unread"`
}

func mapConversations(userID primitive.ObjectID, views []service.ConversationView) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(views))
	for _, v := range views {
		row := ConversationResponse{
			PartnerID:       v.PartnerID.Hex(),
			Username:        "deleted user",
			LastMessage:     v.LastMessage.Text,
			LastMessageDate: v.LastMessage.CreatedAt,
			Unread:          v.LastMessage.To == userID && !v.LastMessage.Read,
		}
		if v.Partner != nil {
			row.Username = v.Partner.Username
			row.Profile = ConversationProfile{Name: v.Partner.Profile.Name, AvatarURL: v.Partner.Profile.AvatarURL}
		}
		out = append(out, row)
	}
	return out
}

type UnreadSenderResponse struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

type UnreadResponse struct {
	Total  int                             `json:"total"`
	ByUser map[string]UnreadSenderResponse `json:"byUser"`
}

func mapUnread(s *service.UnreadSummary) UnreadResponse {
	resp := UnreadResponse{Total: s.Total, ByUser: make(map[string]UnreadSenderResponse, len(s.ByUser))}
	for id, sender := range s.ByUser {
		resp.ByUser[id.Hex()] = UnreadSenderResponse{Count: sender.Count, Name: sender.Name}
	}
	return resp
}

// emptyIfNil keeps list endpoints from answering null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
