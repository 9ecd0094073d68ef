package member

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Profile public identity carried by Authenticate / GetProfile / FindMember
type Profile struct {
	ID                string
	Email             string
	DisplayName       string
	NativeLanguage    string
	LearningLanguages []string
	Online            bool
	LastActive        time.Time
}

// RegisterRequest Register payload
type RegisterRequest struct {
	Email             string
	Password          string
	DisplayName       string
	NativeLanguage    string
	LearningLanguages []string
}

// LoginRequest Login payload
type LoginRequest struct {
	Email    string
	Password string
}

// FindRequest FindMember payload, one of the fields is set
type FindRequest struct {
	MemberID string
	Email    string
}

// OnlineRequest SetOnline payload
type OnlineRequest struct {
	MemberID string
	Online   bool
}

func toList(values []string) []interface{} {
	list := make([]interface{}, 0, len(values))
	for _, v := range values {
		list = append(list, v)
	}
	return list
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func strList(s *structpb.Struct, key string) []string {
	values := s.GetFields()[key].GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.GetStringValue())
	}
	return out
}

// ProfileToStruct encode profile
func ProfileToStruct(p Profile) (*structpb.Struct, error) {
	var lastActive float64
	if !p.LastActive.IsZero() {
		lastActive = float64(p.LastActive.UnixMilli())
	}
	return structpb.NewStruct(map[string]interface{}{
		"id":                 p.ID,
		"email":              p.Email,
		"display_name":       p.DisplayName,
		"native_language":    p.NativeLanguage,
		"learning_languages": toList(p.LearningLanguages),
		"online":             p.Online,
		"last_active":        lastActive,
	})
}

// ProfileFromStruct decode profile
func ProfileFromStruct(s *structpb.Struct) Profile {
	p := Profile{
		ID:                str(s, "id"),
		Email:             str(s, "email"),
		DisplayName:       str(s, "display_name"),
		NativeLanguage:    str(s, "native_language"),
		LearningLanguages: strList(s, "learning_languages"),
		Online:            s.GetFields()["online"].GetBoolValue(),
	}
	if ms := int64(s.GetFields()["last_active"].GetNumberValue()); ms > 0 {
		p.LastActive = time.UnixMilli(ms)
	}
	return p
}

// ToStruct encode register request
func (r RegisterRequest) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"email":              r.Email,
		"password":           r.Password,
		"display_name":       r.DisplayName,
		"native_language":    r.NativeLanguage,
		"learning_languages": toList(r.LearningLanguages),
	})
}

// RegisterRequestFromStruct decode register request
func RegisterRequestFromStruct(s *structpb.Struct) RegisterRequest {
	return RegisterRequest{
		Email:             str(s, "email"),
		Password:          str(s, "password"),
		DisplayName:       str(s, "display_name"),
		NativeLanguage:    str(s, "native_language"),
		LearningLanguages: strList(s, "learning_languages"),
	}
}

// ToStruct encode login request
func (r LoginRequest) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"email":    r.Email,
		"password": r.Password,
	})
}

// LoginRequestFromStruct decode login request
func LoginRequestFromStruct(s *structpb.Struct) LoginRequest {
	return LoginRequest{Email: str(s, "email"), Password: str(s, "password")}
}

// ToStruct encode find request
func (r FindRequest) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"member_id": r.MemberID,
		"email":     r.Email,
	})
}

// FindRequestFromStruct decode find request
func FindRequestFromStruct(s *structpb.Struct) FindRequest {
	return FindRequest{MemberID: str(s, "member_id"), Email: str(s, "email")}
}

// ToStruct encode online request
func (r OnlineRequest) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"member_id": r.MemberID,
		"online":    r.Online,
	})
}

// OnlineRequestFromStruct decode online request
func OnlineRequestFromStruct(s *structpb.Struct) OnlineRequest {
	return OnlineRequest{MemberID: str(s, "member_id"), Online: s.GetFields()["online"].GetBoolValue()}
}
