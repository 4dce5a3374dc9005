package employee

import (
	"empdir/internal/api"
)

// ToViewModel renames the API fields of raw. Values are not transformed.
func ToViewModel(raw api.RawEmployee) ViewModel {
	return ViewModel{
		ID:            raw.ID.String(),
		Name:          raw.Name,
		MotherName:    raw.MotherName,
		FatherName:    raw.FatherName,
		Gender:        Gender(raw.Gender),
		Country:       raw.CountryCode.String(),
		State:         raw.StateCode.String(),
		Email:         raw.EmailAddress,
		Contact:       raw.ContactNumber,
		DOB:           raw.DOB,
		ProfileBase64: raw.ProfileBase64,
		ProfileName:   raw.ProfileName,
	}
}

// ToViewModels maps a whole list.
func ToViewModels(raws []api.RawEmployee) []ViewModel {
	out := make([]ViewModel, 0, len(raws))
	for _, raw := range raws {
		out = append(out, ToViewModel(raw))
	}
	return out
}

// FormValuesFromViewModel prefills a form from an existing record. An
// unparseable DOB leaves the picker empty.
func FormValuesFromViewModel(vm ViewModel) FormValues {
	dob, _ := ParseDate(vm.DOB)
	return FormValues{
		Name:       vm.Name,
		MotherName: vm.MotherName,
		FatherName: vm.FatherName,
		Gender:     vm.Gender,
		DOB:        dob,
		Country:    vm.Country,
		State:      vm.State,
		Email:      vm.Email,
		Contact:    vm.Contact,
	}
}

// ProfileMetaFromViewModel captures the stored image of vm.
func ProfileMetaFromViewModel(vm ViewModel) ProfileMeta {
	return ProfileMeta{FileName: vm.ProfileName, Base64: vm.ProfileBase64}
}

// ToWritePayload builds the insert/update body. A newly chosen image replaces
// both the filename and the body; otherwise the stored ones are sent back.
func ToWritePayload(values FormValues, existingID string, existing ProfileMeta) api.WritePayload {
	payload := api.WritePayload{
		ID:            existingID,
		Name:          values.Name,
		MotherName:    values.MotherName,
		FatherName:    values.FatherName,
		Gender:        string(values.Gender),
		CountryCode:   values.Country,
		StateCode:     values.State,
		EmailAddress:  values.Email,
		ContactNumber: values.Contact,
		ProfileName:   existing.FileName,
		ProfileBase64: existing.Base64,
	}
	if !values.DOB.IsZero() {
		payload.DOB = values.DOB.Format(APIDateLayout)
	}
	if values.Image != nil {
		if values.Image.FileName != "" {
			payload.ProfileName = values.Image.FileName
		}
		if values.Image.Base64 != "" {
			payload.ProfileBase64 = values.Image.Base64
		}
	}
	return payload
}

// FormValuesFromPayload reads a received write payload back into form values
// so it can be validated. The carried image counts as the upload.
func FormValuesFromPayload(p api.WritePayload) FormValues {
	dob, _ := ParseDate(p.DOB)
	values := FormValues{
		Name:       p.Name,
		MotherName: p.MotherName,
		FatherName: p.FatherName,
		Gender:     Gender(p.Gender),
		DOB:        dob,
		Country:    p.CountryCode,
		State:      p.StateCode,
		Email:      p.EmailAddress,
		Contact:    p.ContactNumber,
	}
	if p.ProfileBase64 != "" {
		values.Image = &Upload{FileName: p.ProfileName, Base64: p.ProfileBase64}
	}
	values.Normalize()
	return values
}
