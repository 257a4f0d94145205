package httpapi

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. Arabic is the default language.
const (
	msgUnauthorized     = "unauthorized"
	msgForbidden        = "forbidden"
	msgInvalidRequest   = "invalid_request"
	msgInternal         = "internal_error"
	msgRegistered       = "registered"
	msgRegisteredCode   = "registered_with_code"
	msgDuplicateUser    = "duplicate_username"
	msgBadCredentials   = "bad_credentials"
	msgLoggedOut        = "logged_out"
	msgQuizSaved        = "quiz_saved"
	msgLessonCompleted  = "lesson_completed"
	msgQuranSaved       = "quran_saved"
	msgStudentLinked    = "student_linked"
	msgStudentCodeWrong = "student_code_wrong"
	msgLessonNotFound   = "lesson_not_found"
	msgLessonCreated    = "lesson_created"
	msgNoQuestions      = "no_questions"
)

var supported = []language.Tag{language.Arabic, language.English}

var matcher = language.NewMatcher(supported)

var messages = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Arabic))
	set := func(key, ar, en string) {
		_ = b.SetString(language.Arabic, key, ar)
		_ = b.SetString(language.English, key, en)
	}

	set(msgUnauthorized, "غير مسموح", "Unauthorized")
	set(msgForbidden, "ليس لديك صلاحية لهذا الإجراء", "You are not allowed to do this")
	set(msgInvalidRequest, "البيانات المرسلة غير صحيحة", "The request is invalid")
	set(msgInternal, "حدث خطأ، حاول مرة أخرى", "Something went wrong, please try again")
	set(msgRegistered, "تم إنشاء حسابك بنجاح", "Your account was created")
	set(msgRegisteredCode, "تم إنشاء حسابك بنجاح. رمز الطالب الخاص بك هو: %s", "Your account was created. Your student code is: %s")
	set(msgDuplicateUser, "اسم المستخدم موجود بالفعل", "That username is already taken")
	set(msgBadCredentials, "اسم المستخدم أو كلمة المرور غير صحيحة", "Incorrect username or password")
	set(msgLoggedOut, "تم تسجيل الخروج", "Logged out")
	set(msgQuizSaved, "تم حفظ النتيجة", "Result saved")
	set(msgLessonCompleted, "تم تسجيل إكمال الدرس", "Lesson marked as completed")
	set(msgQuranSaved, "تم حفظ التقدم", "Progress saved")
	set(msgStudentLinked, "تم ربط الطالب بنجاح", "Student linked successfully")
	set(msgStudentCodeWrong, "رمز الطالب غير صحيح", "Incorrect student code")
	set(msgLessonNotFound, "الدرس غير موجود", "Lesson not found")
	set(msgLessonCreated, "تم إنشاء الدرس", "Lesson created")
	set(msgNoQuestions, "لا توجد أسئلة لهذا الدرس", "This lesson has no quiz")
	return b
}

// printer picks the message printer for the request's Accept-Language.
func printer(r *http.Request) *message.Printer {
	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	_, idx, conf := matcher.Match(tags...)
	tag := language.Arabic
	if conf != language.No {
		tag = supported[idx]
	}
	return message.NewPrinter(tag, message.Catalog(messages))
}

func localize(r *http.Request, key string, args ...any) string {
	return printer(r).Sprintf(key, args...)
}
