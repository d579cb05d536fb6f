package controllers

import (
	"fmt"

	"github.com/maiaai/blog/models"
)

// Response DTOs with fixed field sets. Resources reference each other through
// relative self links rather than bare ids, and credentials never leave the
// server.

type postDTO struct {
	URL     string `json:"url"`
	Topic   string `json:"topic"`
	User    string `json:"user"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

type userPostDTO struct {
	Title string `json:"title"`
	Topic string `json:"topic"`
}

type userDTO struct {
	URL       string        `json:"url"`
	Posts     []userPostDTO `json:"posts"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
}

type topicDTO struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func userURL(id uint) string  { return fmt.Sprintf("/api/v1/users/%d", id) }
func topicURL(id uint) string { return fmt.Sprintf("/api/v1/topics/%d", id) }
func postURL(id uint) string  { return fmt.Sprintf("/api/v1/posts/%d", id) }

func newPostDTO(p models.Post) postDTO {
	return postDTO{
		URL:     postURL(p.ID),
		Topic:   topicURL(p.TopicID),
		User:    userURL(p.UserID),
		Title:   p.Title,
		Content: p.Content,
		Status:  p.Status,
	}
}

func newPostDTOs(posts []models.Post) []postDTO {
	out := make([]postDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, newPostDTO(p))
	}
	return out
}

// newUserDTO expects u.Posts to be preloaded.
func newUserDTO(u models.User) userDTO {
	posts := make([]userPostDTO, 0, len(u.Posts))
	for _, p := range u.Posts {
		posts = append(posts, userPostDTO{Title: p.Title, Topic: topicURL(p.TopicID)})
	}
	return userDTO{
		URL:       userURL(u.ID),
		Posts:     posts,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

func newUserDTOs(users []models.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, newUserDTO(u))
	}
	return out
}

func newTopicDTO(t models.Topic) topicDTO {
	return topicDTO{URL: topicURL(t.ID), Name: t.Name, Slug: t.Slug}
}

func newTopicDTOs(topics []models.Topic) []topicDTO {
	out := make([]topicDTO, 0, len(topics))
	for _, t := range topics {
		out = append(out, newTopicDTO(t))
	}
	return out
}
