package request

type UploadImage struct {
	Name     string `json:"name" example:"car.jpg"`
	Mimetype string `json:"mimetype" example:"image/jpeg"`
}
