package friendship

type SendRequestRequest struct {
	Email string `json:"email"`
}

type RespondRequest struct {
	Decision Decision `json:"decision"`
}
